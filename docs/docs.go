// Package docs holds the OpenAPI description served at /swagger/*.
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
        "/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [
                    {"description": "User registration details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.authResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"description": "Login credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.authResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/v1/trips": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["trips"],
                "summary": "Start a trip",
                "parameters": [
                    {"description": "Trip assignment", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.startTripRequest"}}
                ],
                "responses": {
                    "200": {"description": "trip already open", "schema": {"$ref": "#/definitions/handler.tripResponse"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.tripResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/v1/trips/{shipment_id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["trips"],
                "summary": "Get trip progress",
                "parameters": [
                    {"type": "string", "description": "Shipment ID", "name": "shipment_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.tripResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/v1/trips/{shipment_id}/advance": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["trips"],
                "summary": "Advance trip status",
                "parameters": [
                    {"type": "string", "description": "Shipment ID", "name": "shipment_id", "in": "path", "required": true},
                    {"description": "Requested stage", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.advanceTripRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.advanceTripResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/v1/locations": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["locations"],
                "summary": "Report driver location",
                "parameters": [
                    {"description": "Location sample", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.locationReportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/handler.locationReportResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.locationReportResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/handler.locationReportResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.locationReportResponse"}}
                }
            }
        },
        "/v1/drivers/{driver_id}/fixes": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "tags": ["locations"],
                "summary": "Push a raw GPS fix",
                "parameters": [
                    {"type": "string", "description": "Driver ID", "name": "driver_id", "in": "path", "required": true},
                    {"description": "Fix", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.locationReportRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/v1/monitoring": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["monitoring"],
                "summary": "List monitoring sessions",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.listSessionsResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["monitoring"],
                "summary": "Start monitoring",
                "parameters": [
                    {"description": "Session", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.startMonitoringRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.sessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/v1/monitoring/{session_id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["monitoring"],
                "summary": "Stop monitoring",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "session_id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        }
    },
    "definitions": {
        "handler.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "handler.registerRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string", "enum": ["admin", "operator", "driver"]}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.authResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "user": {"$ref": "#/definitions/domain.User"}
            }
        },
        "domain.User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "handler.coordinatesRequest": {
            "type": "object",
            "properties": {
                "lat": {"type": "number"},
                "lng": {"type": "number"}
            }
        },
        "handler.startTripRequest": {
            "type": "object",
            "properties": {
                "shipment_id": {"type": "string"},
                "driver_id": {"type": "string"},
                "shipper_id": {"type": "string"}
            }
        },
        "handler.advanceTripRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["new", "accepted", "loading", "loaded", "in_transit", "delivered_pending_confirmation", "delivered", "completed"]},
                "location": {"$ref": "#/definitions/handler.coordinatesRequest"},
                "notes": {"type": "string"}
            }
        },
        "handler.stageResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "label": {"type": "string"},
                "reached_at": {"type": "string"}
            }
        },
        "handler.tripResponse": {
            "type": "object",
            "properties": {
                "shipment_id": {"type": "string"},
                "driver_id": {"type": "string"},
                "shipper_id": {"type": "string"},
                "current_status": {"type": "string"},
                "status_label": {"type": "string"},
                "stages": {"type": "array", "items": {"$ref": "#/definitions/handler.stageResponse"}},
                "last_location": {"$ref": "#/definitions/handler.coordinatesRequest"},
                "notes": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "handler.advanceTripResponse": {
            "type": "object",
            "properties": {
                "trip": {"$ref": "#/definitions/handler.tripResponse"},
                "idempotent": {"type": "boolean"}
            }
        },
        "handler.locationReportRequest": {
            "type": "object",
            "properties": {
                "lat": {"type": "number"},
                "lng": {"type": "number"},
                "accuracy": {"type": "number"},
                "heading": {"type": "number"},
                "speed": {"type": "number"},
                "captured_at": {"type": "string"},
                "shipment_id": {"type": "string"}
            }
        },
        "handler.locationReportResponse": {
            "type": "object",
            "properties": {
                "accepted": {"type": "boolean"},
                "reason": {"type": "string"},
                "warnings": {"type": "integer"}
            }
        },
        "handler.startMonitoringRequest": {
            "type": "object",
            "properties": {
                "shipment_id": {"type": "string"},
                "subject_id": {"type": "string"},
                "poll_interval_seconds": {"type": "integer"},
                "failure_threshold": {"type": "integer"},
                "signal_loss_threshold_seconds": {"type": "integer"},
                "signal_loss_grace_seconds": {"type": "integer"},
                "disable_watchdog": {"type": "boolean"}
            }
        },
        "handler.sessionResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "shipment_id": {"type": "string"},
                "subject_id": {"type": "string"},
                "state": {"type": "string"},
                "started_at": {"type": "string"},
                "consecutive_failures": {"type": "integer"},
                "signal_lost": {"type": "boolean"},
                "last_report_at": {"type": "string"}
            }
        },
        "handler.listSessionsResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/handler.sessionResponse"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Trip Monitor API",
	Description:      "Trip progress and live location monitoring for marketplace shipments.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
