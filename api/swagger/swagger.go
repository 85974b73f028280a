package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "RosterHub API",
        "description": "Personnel roster service for regional delivery offices",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, token refresh and logout"},
        {"name": "Session", "description": "Navigation state machine"},
        {"name": "Personnel", "description": "Courier and office staff rosters"},
        {"name": "Dashboard", "description": "Aggregates and deactivation history"},
        {"name": "Exports", "description": "Asynchronous roster exports"},
        {"name": "Users", "description": "Admin account management"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Logout and clear navigation state",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user info",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/session": {
            "get": {
                "tags": ["Session"],
                "summary": "Current navigation state and resolved view",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/session/office": {
            "post": {
                "tags": ["Session"],
                "summary": "Enter an office (Admin/Editor only)",
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Readers cannot switch offices"}
                }
            }
        },
        "/session/category": {
            "post": {
                "tags": ["Session"],
                "summary": "Enter a personnel category",
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "No office selected"}
                }
            }
        },
        "/session/edit": {
            "post": {
                "tags": ["Session"],
                "summary": "Open a record in the edit form",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "delete": {
                "tags": ["Session"],
                "summary": "Leave the edit form",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/session/back": {
            "post": {
                "tags": ["Session"],
                "summary": "Pop one navigation level",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/personnel/{category}": {
            "get": {
                "tags": ["Personnel"],
                "summary": "List active personnel",
                "parameters": [
                    {"name": "category", "in": "path", "required": true, "type": "string", "enum": ["couriers", "office_staff"]},
                    {"name": "office", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Personnel"],
                "summary": "Create a personnel record",
                "parameters": [
                    {"name": "category", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/personnel/{category}/{id}": {
            "get": {
                "tags": ["Personnel"],
                "summary": "Get one record",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "patch": {
                "tags": ["Personnel"],
                "summary": "Update the listed fields of a record",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/personnel/{category}/{id}/deactivate": {
            "post": {
                "tags": ["Personnel"],
                "summary": "Soft delete: flip status and stamp the date",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/personnel/{category}/{id}/attachments/{slot}": {
            "post": {
                "tags": ["Personnel"],
                "summary": "Upload an attachment into a slot",
                "parameters": [
                    {"name": "slot", "in": "path", "required": true, "type": "string", "enum": ["document", "vehicle_photo"]}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "207": {"description": "Record updated but file write failed"}
                }
            },
            "get": {
                "tags": ["Personnel"],
                "summary": "Download the stored attachment",
                "responses": {
                    "200": {"description": "File stream"}
                }
            }
        },
        "/personnel/{category}/export": {
            "get": {
                "tags": ["Personnel"],
                "summary": "Export the active listing synchronously",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["xlsx", "csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File stream"}
                }
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Personnel aggregates",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/refresh": {
            "post": {
                "tags": ["Dashboard"],
                "summary": "Invalidate the cached aggregates",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/history": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Deactivation history, newest first",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue an asynchronous export",
                "responses": {
                    "202": {"description": "Accepted"}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a completed export via its signed link",
                "responses": {
                    "200": {"description": "File stream"},
                    "401": {"description": "Invalid or expired link"}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List accounts with role and office",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create an account",
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/users/{id}": {
            "delete": {
                "tags": ["Users"],
                "summary": "Delete an account (not your own)",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/users/{id}/role": {
            "put": {
                "tags": ["Users"],
                "summary": "Change the role of an account",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
