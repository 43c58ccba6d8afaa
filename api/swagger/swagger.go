package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Field Placement API",
        "description": "School and subject capacity allocation for student field placements",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Geography", "description": "Region, district and school reference data"},
        {"name": "Selection", "description": "School selection workflow"},
        {"name": "Applications", "description": "Subject slot applications"},
        {"name": "Pinning", "description": "Availability pins per academic year"},
        {"name": "Assignments", "description": "Assessor to school assignments"},
        {"name": "Letters", "description": "Approval letters"},
        {"name": "Logbook", "description": "Daily field reports"}
    ],
    "paths": {
        "/regions": {
            "get": {
                "tags": ["Geography"],
                "summary": "List regions with availability for the active year",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/regions/{id}/districts": {
            "get": {
                "tags": ["Geography"],
                "summary": "List districts of a region",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Region not found"}
                }
            }
        },
        "/districts/{id}/schools": {
            "get": {
                "tags": ["Geography"],
                "summary": "List schools of a district with availability verdicts",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "level", "in": "query", "type": "string"},
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schools/{id}/availability": {
            "get": {
                "tags": ["Geography"],
                "summary": "Availability verdict for one school",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "School not found"}
                }
            }
        },
        "/selection": {
            "get": {
                "tags": ["Selection"],
                "summary": "Current selection state, pending and confirmed",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Selection"],
                "summary": "Select a school, reserving a seat",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already selected, school pinned or full"}
                }
            },
            "delete": {
                "tags": ["Selection"],
                "summary": "Cancel the pending selection, releasing the seat",
                "responses": {
                    "204": {"description": "No Content"},
                    "412": {"description": "No pending selection"}
                }
            }
        },
        "/selection/confirm": {
            "post": {
                "tags": ["Selection"],
                "summary": "Confirm the pending selection onto the profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "No pending selection"}
                }
            }
        },
        "/applications": {
            "get": {
                "tags": ["Applications"],
                "summary": "List applications",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "schoolId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Applications"],
                "summary": "Apply for a subject slot at the confirmed school",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate, subject full or not offered"},
                    "412": {"description": "School does not match the confirmed selection"}
                }
            }
        },
        "/applications/{id}/approve": {
            "post": {
                "tags": ["Applications"],
                "summary": "Approve a pending application",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Already decided"}
                }
            }
        },
        "/applications/{id}/reject": {
            "post": {
                "tags": ["Applications"],
                "summary": "Reject a pending application",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Already decided"}
                }
            }
        },
        "/pinning/regions": {
            "post": {
                "tags": ["Pinning"],
                "summary": "Submit the allowed-regions list for an academic year",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schools/{id}/pin": {
            "post": {
                "tags": ["Pinning"],
                "summary": "Pin one school for the active year",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Pinning"],
                "summary": "Clear a school pin for the active year",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments": {
            "get": {
                "tags": ["Assignments"],
                "summary": "List the caller's school assignments",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Assignments"],
                "summary": "Assign an assessor to a school",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments/bulk": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Assign every listed assessor to every listed school",
                "parameters": [
                    {"name": "async", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "Per-pair report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Queued"}
                }
            }
        },
        "/letters/individual": {
            "get": {
                "tags": ["Letters"],
                "summary": "Download the caller's approval letter",
                "produces": ["application/pdf"],
                "responses": {
                    "200": {"description": "PDF"},
                    "412": {"description": "No approved applications"}
                }
            }
        },
        "/letters/group/{schoolId}": {
            "get": {
                "tags": ["Letters"],
                "summary": "Download a school's roster letter",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "schoolId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "PDF"},
                    "412": {"description": "Not enough approved students"}
                }
            }
        },
        "/logbook": {
            "get": {
                "tags": ["Logbook"],
                "summary": "List the caller's logbook entries",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Logbook"],
                "summary": "Submit the day's field report",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
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
