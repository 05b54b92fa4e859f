// Package docs holds the OpenAPI description served under /swagger.
// Regenerate with: swag init -g cmd/server/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Home",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.homeResponse"}}
                }
            }
        },
        "/login": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login form",
                "parameters": [
                    {"type": "string", "description": "Error code from a failed attempt", "name": "error", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.formResponse"}}
                }
            },
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"type": "string", "description": "Email", "name": "username", "in": "formData", "required": true},
                    {"type": "string", "description": "Password", "name": "password", "in": "formData", "required": true}
                ],
                "responses": {
                    "302": {"description": "redirect", "schema": {"type": "string"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/register": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Registration form",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.formResponse"}}
                }
            },
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["auth"],
                "summary": "Register",
                "parameters": [
                    {"type": "string", "description": "Email", "name": "username", "in": "formData", "required": true},
                    {"type": "string", "description": "Password", "name": "password", "in": "formData", "required": true}
                ],
                "responses": {
                    "302": {"description": "redirect", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/logout": {
            "get": {
                "tags": ["auth"],
                "summary": "Logout",
                "responses": {
                    "302": {"description": "redirect", "schema": {"type": "string"}}
                }
            }
        },
        "/reset-password": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["auth"],
                "summary": "Reset password",
                "parameters": [
                    {"type": "string", "description": "Email", "name": "username", "in": "formData", "required": true},
                    {"type": "string", "description": "New password", "name": "password", "in": "formData", "required": true}
                ],
                "responses": {
                    "302": {"description": "redirect", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/auth/{provider}": {
            "get": {
                "tags": ["oauth"],
                "summary": "Start provider sign-in",
                "parameters": [
                    {"type": "string", "description": "google or github", "name": "provider", "in": "path", "required": true}
                ],
                "responses": {
                    "302": {"description": "redirect", "schema": {"type": "string"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/auth/{provider}/callback": {
            "get": {
                "tags": ["oauth"],
                "summary": "Provider callback",
                "parameters": [
                    {"type": "string", "description": "google or github", "name": "provider", "in": "path", "required": true},
                    {"type": "string", "description": "Authorization code", "name": "code", "in": "query"},
                    {"type": "string", "description": "Signed state", "name": "state", "in": "query"}
                ],
                "responses": {
                    "302": {"description": "redirect", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/todolist": {
            "get": {
                "produces": ["application/json"],
                "tags": ["todolist"],
                "summary": "List tasks",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.taskListResponse"}}
                }
            },
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["todolist"],
                "summary": "Create task",
                "parameters": [
                    {"type": "string", "description": "Task text", "name": "task", "in": "formData", "required": true}
                ],
                "responses": {
                    "302": {"description": "redirect", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/todolist/complete/{id}": {
            "post": {
                "tags": ["todolist"],
                "summary": "Complete task",
                "parameters": [
                    {"type": "string", "description": "Task id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "302": {"description": "redirect", "schema": {"type": "string"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/todolist/delete/{id}": {
            "post": {
                "tags": ["todolist"],
                "summary": "Delete task",
                "parameters": [
                    {"type": "string", "description": "Task id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "302": {"description": "redirect", "schema": {"type": "string"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Task": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "user_id": {"type": "string"},
                "task": {"type": "string"},
                "completed": {"type": "boolean"},
                "created_at": {"type": "string"}
            }
        },
        "handler.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "handler.formField": {
            "type": "object",
            "properties": {"name": {"type": "string"}, "type": {"type": "string"}}
        },
        "handler.formResponse": {
            "type": "object",
            "properties": {
                "form": {"type": "string"},
                "action": {"type": "string"},
                "method": {"type": "string"},
                "fields": {"type": "array", "items": {"$ref": "#/definitions/handler.formField"}},
                "providers": {"type": "array", "items": {"type": "string"}},
                "error": {"type": "string"}
            }
        },
        "handler.homeLinks": {
            "type": "object",
            "properties": {
                "login": {"type": "string"},
                "register": {"type": "string"},
                "todolist": {"type": "string"},
                "logout": {"type": "string"}
            }
        },
        "handler.homeResponse": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "authenticated": {"type": "boolean"},
                "email": {"type": "string"},
                "_links": {"$ref": "#/definitions/handler.homeLinks"}
            }
        },
        "handler.taskListResponse": {
            "type": "object",
            "properties": {
                "user": {"type": "string"},
                "tasks": {"type": "array", "items": {"$ref": "#/definitions/domain.Task"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Todolist API",
	Description:      "Multi-user todolist with password and provider sign-in.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
