// Package docs holds the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag/v2"

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
        "/bulk/action-types": {
            "get": {
                "produces": ["application/json"],
                "tags": ["bulk"],
                "summary": "List bulk action types",
                "operationId": "listBulkActionTypes",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/handler.APIResponse-handler_ActionTypesData"}
                    }
                }
            }
        },
        "/bulk/actions": {
            "post": {
                "description": "Snapshots the target records as a work order and queues it for replay.\nTargets are either a numeric search_run_id or an ordered pk mapping.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["bulk"],
                "summary": "Submit a bulk action",
                "operationId": "submitBulkAction",
                "parameters": [
                    {"type": "string", "description": "Acting user ID", "name": "X-User-ID", "in": "header", "required": true},
                    {"description": "Bulk action", "name": "request", "in": "body", "required": true,
                        "schema": {"$ref": "#/definitions/dto.SubmitBulkActionRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/handler.APIResponse-bulk_Submission"}},
                    "400": {"description": "INVALID_REQUEST or unknown action", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "422": {"description": "TOO_MANY_BULK_OBJECTS", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/bulk/process-logs": {
            "get": {
                "description": "Newest first. Change records are only included by the detail endpoint.",
                "produces": ["application/json"],
                "tags": ["bulk"],
                "summary": "List bulk process logs",
                "operationId": "listBulkProcessLogs",
                "parameters": [
                    {"type": "string", "description": "Action type", "name": "action_type", "in": "query"},
                    {"type": "string", "format": "uuid", "description": "Submitting user ID", "name": "user_id", "in": "query"},
                    {"type": "boolean", "description": "Only completed (true) or open (false) runs", "name": "completed", "in": "query"},
                    {"type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "type": "integer", "default": 20, "description": "Page size", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.APIResponse-array_dto_ProcessLogSummary"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/bulk/process-logs/{id}": {
            "get": {
                "description": "Includes change records ordered by sequence number and outcome counts.",
                "produces": ["application/json"],
                "tags": ["bulk"],
                "summary": "Get a bulk process log",
                "operationId": "getBulkProcessLog",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Process log ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.APIResponse-dto_ProcessLogDetail"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/system/info": {
            "get": {
                "description": "Returns basic system information including version and uptime",
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Get system information",
                "operationId": "getSystemSystemInfo",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.APIResponse-HandlerSystemInfoResponse"}}
                }
            }
        },
        "/system/ping": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Ping the API",
                "operationId": "pingSystem",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.APIResponse-HandlerPingResponse"}}
                }
            }
        }
    },
    "definitions": {
        "HandlerPingResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "pong"},
                "timestamp": {"type": "string", "example": "2026-01-23T12:00:00Z"}
            }
        },
        "HandlerDatabasePoolInfo": {
            "type": "object",
            "properties": {
                "idle": {"type": "integer", "example": 3},
                "in_use": {"type": "integer", "example": 1},
                "open_connections": {"type": "integer", "example": 4},
                "wait_count": {"type": "integer", "example": 0}
            }
        },
        "HandlerSystemInfoResponse": {
            "type": "object",
            "properties": {
                "database": {"$ref": "#/definitions/HandlerDatabasePoolInfo"},
                "go_version": {"type": "string", "example": "go1.25.5"},
                "name": {"type": "string", "example": "tradecomply-bulk"},
                "uptime": {"type": "string", "example": "1h30m45s"},
                "version": {"type": "string", "example": "1.0.0"}
            }
        },
        "bulk.Submission": {
            "type": "object",
            "properties": {
                "action_type": {"type": "string"},
                "bucket": {"type": "string"},
                "content_hash": {"type": "string"},
                "key": {"type": "string"},
                "key_count": {"type": "integer"},
                "submitted_at": {"type": "string"}
            }
        },
        "dto.ChangeRecordResponse": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "failed": {"type": "boolean"},
                "id": {"type": "string"},
                "messages": {"type": "array", "items": {"type": "string"}},
                "record_id": {"type": "string", "example": "1001"},
                "record_sequence_number": {"type": "integer", "example": 1},
                "record_type": {"type": "string", "example": "Order"}
            }
        },
        "dto.ErrorInfo": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {"type": "array", "items": {"$ref": "#/definitions/dto.ValidationDetail"}},
                "message": {"type": "string"},
                "request_id": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "dto.Meta": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "dto.ProcessLogDetail": {
            "type": "object",
            "properties": {
                "action_type": {"type": "string", "example": "Bulk Order Update"},
                "change_records": {"type": "array", "items": {"$ref": "#/definitions/dto.ChangeRecordResponse"}},
                "completed": {"type": "boolean"},
                "completed_at": {"type": "string"},
                "failed_count": {"type": "integer"},
                "id": {"type": "string"},
                "snapshot_key": {"type": "string"},
                "started_at": {"type": "string"},
                "succeeded_count": {"type": "integer"},
                "user_id": {"type": "string"}
            }
        },
        "dto.ProcessLogSummary": {
            "type": "object",
            "properties": {
                "action_type": {"type": "string", "example": "Bulk Order Update"},
                "completed": {"type": "boolean"},
                "completed_at": {"type": "string"},
                "id": {"type": "string"},
                "snapshot_key": {"type": "string"},
                "started_at": {"type": "string"},
                "user_id": {"type": "string"}
            }
        },
        "dto.SubmitBulkActionRequest": {
            "type": "object",
            "required": ["action_type"],
            "properties": {
                "action_type": {"type": "string", "example": "Bulk Comment"},
                "opts": {"type": "object", "additionalProperties": true},
                "pk": {"type": "object"},
                "search_run_id": {"type": "string", "example": "42"}
            }
        },
        "dto.ValidationDetail": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handler.APIResponse-HandlerPingResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/HandlerPingResponse"},
                "error": {"$ref": "#/definitions/dto.ErrorInfo"},
                "meta": {"$ref": "#/definitions/dto.Meta"},
                "success": {"type": "boolean"}
            }
        },
        "handler.APIResponse-HandlerSystemInfoResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/HandlerSystemInfoResponse"},
                "error": {"$ref": "#/definitions/dto.ErrorInfo"},
                "meta": {"$ref": "#/definitions/dto.Meta"},
                "success": {"type": "boolean"}
            }
        },
        "handler.APIResponse-array_dto_ProcessLogSummary": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/dto.ProcessLogSummary"}},
                "error": {"$ref": "#/definitions/dto.ErrorInfo"},
                "meta": {"$ref": "#/definitions/dto.Meta"},
                "success": {"type": "boolean"}
            }
        },
        "handler.APIResponse-bulk_Submission": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/bulk.Submission"},
                "error": {"$ref": "#/definitions/dto.ErrorInfo"},
                "meta": {"$ref": "#/definitions/dto.Meta"},
                "success": {"type": "boolean"}
            }
        },
        "handler.APIResponse-dto_ProcessLogDetail": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/dto.ProcessLogDetail"},
                "error": {"$ref": "#/definitions/dto.ErrorInfo"},
                "meta": {"$ref": "#/definitions/dto.Meta"},
                "success": {"type": "boolean"}
            }
        },
        "handler.APIResponse-handler_ActionTypesData": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/handler.ActionTypesData"},
                "error": {"$ref": "#/definitions/dto.ErrorInfo"},
                "meta": {"$ref": "#/definitions/dto.Meta"},
                "success": {"type": "boolean"}
            }
        },
        "handler.ActionTypesData": {
            "type": "object",
            "properties": {
                "action_types": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/dto.ErrorInfo"},
                "success": {"type": "boolean", "example": false}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Trade Compliance Bulk Action API",
	Description:      "Submits bulk actions over trade records and reports their per-record outcomes.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
