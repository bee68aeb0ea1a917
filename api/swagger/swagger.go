package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Timetable API",
        "description": "Weekly timetable generation for rooms, teachers and class groups",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Scheduler", "description": "Timetable generation runs"},
        {"name": "Schedule", "description": "Persisted timetable views, swaps and exports"},
        {"name": "Timeslots", "description": "Weekly grid maintenance"}
    ],
    "paths": {
        "/schedule/solve": {
            "post": {
                "tags": ["Scheduler"],
                "summary": "Generate the weekly timetable",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Structural or total infeasibility", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Persistence failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/solve/async": {
            "post": {
                "tags": ["Scheduler"],
                "summary": "Queue a timetable generation run",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Queue full", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/runs/{id}": {
            "get": {
                "tags": ["Scheduler"],
                "summary": "Get the status of a queued generation run",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/report/latest": {
            "get": {
                "tags": ["Scheduler"],
                "summary": "Get the report of the last successful generation",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No schedule generated yet", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Weekly timetable grid",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "view", "in": "query", "type": "string", "enum": ["full", "group", "teacher", "room"]},
                    {"name": "value", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/swap": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Swap two cells of a filtered view",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SwapRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Swap would double-book", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/export": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Download the timetable",
                "produces": ["text/csv", "application/pdf"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "view", "in": "query", "type": "string", "enum": ["full", "group", "teacher", "room"]},
                    {"name": "value", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        },
        "/timeslots/defaults": {
            "post": {
                "tags": ["Timeslots"],
                "summary": "Regenerate default timeslots",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "SlotRef": {
            "type": "object",
            "properties": {
                "day": {"type": "integer", "minimum": 0, "maximum": 4},
                "slot": {"type": "integer", "minimum": 0, "maximum": 5}
            }
        },
        "SwapRequest": {
            "type": "object",
            "required": ["view", "value", "from", "to"],
            "properties": {
                "view": {"type": "string", "enum": ["group", "teacher", "room"]},
                "value": {"type": "integer"},
                "from": {"$ref": "#/definitions/SlotRef"},
                "to": {"$ref": "#/definitions/SlotRef"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
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
