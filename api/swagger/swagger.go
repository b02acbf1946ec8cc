package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Izin API",
        "description": "Daily student permission queue, public display board and day ledger",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Auth", "description": "Login and session management"},
        {"name": "Queue", "description": "Today's permission queue"},
        {"name": "Board", "description": "Public display board"},
        {"name": "Students", "description": "Student roster management"},
        {"name": "History", "description": "Archived day ledger"},
        {"name": "Reports", "description": "Report and slip generation"},
        {"name": "Users", "description": "Staff account management"},
        {"name": "Data", "description": "Backup and wipe"},
        {"name": "System", "description": "Observability"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate with email and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token pair", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange a refresh token for a new pair",
                "responses": {
                    "200": {"description": "Token pair", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Invalid refresh token"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Revoke the current session",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "Logged out"}}
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["Auth"],
                "summary": "Change the current user's password",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Password changed"},
                    "400": {"description": "Weak or mismatched password"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current user profile",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Profile", "schema": {"$ref": "#/definitions/Envelope"}}}
            }
        },
        "/queue/today": {
            "get": {
                "tags": ["Queue"],
                "summary": "List today's queue entries",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Entries for the current local day", "schema": {"$ref": "#/definitions/Envelope"}}}
            }
        },
        "/queue": {
            "post": {
                "tags": ["Queue"],
                "summary": "Add a student to today's queue",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddQueueEntryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Entry created", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "Student already queued today"}
                }
            }
        },
        "/queue/{id}": {
            "delete": {
                "tags": ["Queue"],
                "summary": "Remove an entry from today's queue",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Removed"},
                    "403": {"description": "Not the author, or the day is already confirmed"},
                    "404": {"description": "Entry not found"}
                }
            }
        },
        "/queue/reset": {
            "post": {
                "tags": ["Queue"],
                "summary": "Archive today's entries and clear the queue",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Archive summary", "schema": {"$ref": "#/definitions/Envelope"}},
                    "403": {"description": "Admin only"}
                }
            }
        },
        "/public/queue": {
            "get": {
                "tags": ["Board"],
                "summary": "Public display board for today",
                "responses": {"200": {"description": "Board entries, no authentication required", "schema": {"$ref": "#/definitions/Envelope"}}}
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "class", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "Paginated students", "schema": {"$ref": "#/definitions/Envelope"}}}
            },
            "post": {
                "tags": ["Students"],
                "summary": "Create a student",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Student created", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "Duplicate name and class"}
                }
            }
        },
        "/students/{id}": {
            "delete": {
                "tags": ["Students"],
                "summary": "Delete a student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"204": {"description": "Deleted"}, "404": {"description": "Not found"}}
            }
        },
        "/students/template": {
            "get": {
                "tags": ["Students"],
                "summary": "Download the roster import template",
                "security": [{"BearerAuth": []}],
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "responses": {"200": {"description": "XLSX template"}}
            }
        },
        "/students/import": {
            "post": {
                "tags": ["Students"],
                "summary": "Import students from a filled template",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "Import summary with imported and skipped counts", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "Unreadable or empty file"}
                }
            }
        },
        "/history": {
            "get": {
                "tags": ["History"],
                "summary": "List archived day records",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {"200": {"description": "Ledger records", "schema": {"$ref": "#/definitions/Envelope"}}}
            }
        },
        "/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Request a report, slips or a history export",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Job accepted", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "Empty queue or invalid range"}
                }
            }
        },
        "/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Poll a report job",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Job status and download URL when finished", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Unknown job"}
                }
            }
        },
        "/reports/download/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a finished report by signed token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "410": {"description": "Link expired"}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List staff accounts",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Accounts", "schema": {"$ref": "#/definitions/Envelope"}}}
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create a staff account",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Account created", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "Email already in use"}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "tags": ["Users"],
                "summary": "Fetch a staff account",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "Account", "schema": {"$ref": "#/definitions/Envelope"}}}
            },
            "delete": {
                "tags": ["Users"],
                "summary": "Deactivate a staff account",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deactivated"},
                    "400": {"description": "Cannot deactivate your own account"}
                }
            }
        },
        "/data/export": {
            "get": {
                "tags": ["Data"],
                "summary": "Export all data as a JSON backup",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Backup document"}}
            }
        },
        "/data": {
            "delete": {
                "tags": ["Data"],
                "summary": "Erase students, queue, board and history",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Wipe summary", "schema": {"$ref": "#/definitions/Envelope"}},
                    "403": {"description": "Admin only"}
                }
            }
        },
        "/system/metrics": {
            "get": {
                "tags": ["System"],
                "summary": "Runtime metrics snapshot",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Aggregated counters", "schema": {"$ref": "#/definitions/Envelope"}}}
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
        "AddQueueEntryRequest": {
            "type": "object",
            "required": ["student_name", "student_class", "reason"],
            "properties": {
                "student_name": {"type": "string"},
                "student_class": {"type": "string"},
                "guardian_name": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "ReportRequest": {
            "type": "object",
            "required": ["type"],
            "properties": {
                "type": {"type": "string", "enum": ["daily", "slips", "history"]},
                "format": {"type": "string", "enum": ["pdf", "csv"]},
                "entry_ids": {"type": "array", "items": {"type": "string"}},
                "from": {"type": "string", "format": "date"},
                "to": {"type": "string", "format": "date"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "Envelope": {
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
