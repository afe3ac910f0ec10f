package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Parent Portal API",
        "description": "Parent portal for the association: attendance calendar, outing consents and invitations",
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
        {"name": "Auth", "description": "Login and token management"},
        {"name": "Account", "description": "Parent dashboard and child data"},
        {"name": "Consents", "description": "Outing signature and refusal"},
        {"name": "Attendance", "description": "Saturday roster recording"},
        {"name": "Outings", "description": "Outing management"},
        {"name": "Invitations", "description": "Outing invitations and reminders"},
        {"name": "Messages", "description": "Parent/staff messaging"},
        {"name": "Attestations", "description": "Presence attestation PDFs"},
        {"name": "Parents", "description": "Parent account approval"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unreachable"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"},
                    "403": {"description": "Account pending approval"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate refresh token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid or expired refresh token"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Revoke refresh token",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/account": {
            "get": {
                "tags": ["Account"],
                "summary": "Parent dashboard",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/account/presences/month": {
            "get": {
                "tags": ["Account"],
                "summary": "Monthly presence calendar for a child",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "childId", "in": "query", "required": true, "type": "string"},
                    {"name": "month", "in": "query", "type": "string", "description": "Month key YYYY-MM, clamped to the school year"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Child not found"}
                }
            }
        },
        "/account/outings": {
            "get": {
                "tags": ["Account"],
                "summary": "Outing registrations split by upcoming/past",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/account/registrations/{id}/sign": {
            "post": {
                "tags": ["Consents"],
                "summary": "Sign an outing consent",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SignConsentRequest"}}
                ],
                "responses": {
                    "200": {"description": "Confirmed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Registration not found"},
                    "409": {"description": "Outing is full"},
                    "503": {"description": "Row lock unavailable, retry later"}
                }
            }
        },
        "/account/registrations/{id}/decline": {
            "post": {
                "tags": ["Consents"],
                "summary": "Decline an invitation",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Declined", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Registration is not pending"}
                }
            }
        },
        "/account/registrations/{id}/attestation": {
            "get": {
                "tags": ["Attestations"],
                "summary": "Download signed consent attestation PDF",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF bytes"},
                    "409": {"description": "Consent not signed yet"}
                }
            }
        },
        "/account/messages": {
            "get": {
                "tags": ["Messages"],
                "summary": "List messages for a child",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "childId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Messages"],
                "summary": "Send a message to the staff",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SendMessageRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/presences": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Roster for a Saturday",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "date", "in": "query", "required": true, "type": "string", "description": "Date YYYY-MM-DD"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Attendance"],
                "summary": "Save the roster for a Saturday",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveRosterRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid date or status"}
                }
            }
        },
        "/admin/outings": {
            "get": {
                "tags": ["Outings"],
                "summary": "List outings with signed counts",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "upcoming", "in": "query", "type": "boolean"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Outings"],
                "summary": "Create outing",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OutingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/outings/{id}": {
            "get": {
                "tags": ["Outings"],
                "summary": "Get outing",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Outings"],
                "summary": "Update outing",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OutingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/outings/{id}/invite": {
            "post": {
                "tags": ["Invitations"],
                "summary": "Invite children to an outing",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/InviteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/outings/{id}/remind": {
            "post": {
                "tags": ["Invitations"],
                "summary": "Remind invited children that have not answered",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/outings/{id}/attestations/export": {
            "post": {
                "tags": ["Attestations"],
                "summary": "Start a bulk attestation export",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/exports/{id}": {
            "get": {
                "tags": ["Attestations"],
                "summary": "Export job state",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download": {
            "get": {
                "tags": ["Attestations"],
                "summary": "Download an exported file with a signed token",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF bytes"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        },
        "/admin/registrations/{id}/review": {
            "put": {
                "tags": ["Consents"],
                "summary": "Mark a confirmed registration attended or absent",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/parents/pending": {
            "get": {
                "tags": ["Parents"],
                "summary": "List parent accounts waiting for approval",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/parents/{id}/approve": {
            "post": {
                "tags": ["Parents"],
                "summary": "Approve a parent account and its children",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/parents/{id}/reject": {
            "post": {
                "tags": ["Parents"],
                "summary": "Reject and delete a pending parent account",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/admin/messages/{id}/read": {
            "put": {
                "tags": ["Messages"],
                "summary": "Mark a message as read",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RefreshTokenRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "SignConsentRequest": {
            "type": "object",
            "properties": {
                "signature_name": {"type": "string"},
                "signature_phone": {"type": "string"},
                "health_notes": {"type": "string"},
                "signature_image": {"type": "string"},
                "consent_given": {"type": "boolean"}
            },
            "required": ["signature_name", "signature_phone", "consent_given"]
        },
        "ReviewRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["attended", "absent"]}
            },
            "required": ["status"]
        },
        "SaveRosterRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "statuses": {
                    "type": "object",
                    "additionalProperties": {"type": "string", "enum": ["present", "absent", "excused"]}
                }
            },
            "required": ["date"]
        },
        "OutingRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "location": {"type": "string"},
                "starts_at": {"type": "string"},
                "image_url": {"type": "string"},
                "capacity": {"type": "integer", "description": "Omit for unlimited"}
            },
            "required": ["title", "starts_at"]
        },
        "InviteRequest": {
            "type": "object",
            "properties": {
                "levels": {"type": "array", "items": {"type": "string"}},
                "child_ids": {"type": "array", "items": {"type": "string"}},
                "only_eligible": {"type": "boolean"},
                "send_message": {"type": "boolean"},
                "message_template": {"type": "string"}
            }
        },
        "SendMessageRequest": {
            "type": "object",
            "properties": {
                "child_id": {"type": "string"},
                "subject": {"type": "string"},
                "body": {"type": "string"}
            },
            "required": ["child_id", "body"]
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
                "pagination": {"type": "object"},
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
