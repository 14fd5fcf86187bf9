// Package docs holds the OpenAPI document served at /swagger.
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
        "/customers": {
            "get": {
                "description": "Returns a page of customers, newest first. Supports weak ETag via If-None-Match and may return 304.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Customers"
                ],
                "summary": "List customers (paginated)",
                "operationId": "listCustomers",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Return 304 if ETag matches",
                        "name": "If-None-Match",
                        "in": "header"
                    },
                    {
                        "minimum": 1,
                        "type": "integer",
                        "default": 1,
                        "description": "Page number",
                        "name": "page",
                        "in": "query"
                    },
                    {
                        "maximum": 100,
                        "minimum": 1,
                        "type": "integer",
                        "default": 20,
                        "description": "Items per page",
                        "name": "page_size",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.ListCustomersResponse"
                        },
                        "headers": {
                            "ETag": {
                                "type": "string",
                                "description": "Weak ETag for current result"
                            }
                        }
                    },
                    "304": {
                        "description": "Not Modified",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "500": {
                        "description": "Internal error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "post": {
                "description": "Registers a customer with optional Zendesk and Jira credentials.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Customers"
                ],
                "summary": "Create a customer",
                "operationId": "createCustomer",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Replays the first response for a repeated key",
                        "name": "Idempotency-Key",
                        "in": "header"
                    },
                    {
                        "description": "Customer payload",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.CreateCustomerRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/handlers.CustomerView"
                        }
                    },
                    "400": {
                        "description": "Bad request",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/customers/search": {
            "get": {
                "description": "Case-insensitive substring match on company name or Slack channel.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Customers"
                ],
                "summary": "Search customers",
                "operationId": "searchCustomers",
                "parameters": [
                    {
                        "type": "string",
                        "example": "acme",
                        "description": "Search text",
                        "name": "q",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/handlers.CustomerView"
                            }
                        }
                    },
                    "400": {
                        "description": "Empty query",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/customers/{id}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Customers"
                ],
                "summary": "Fetch a customer",
                "operationId": "getCustomer",
                "parameters": [
                    {
                        "type": "integer",
                        "minimum": 1,
                        "description": "Customer ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.CustomerView"
                        }
                    },
                    "400": {
                        "description": "Bad request",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Customer not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "delete": {
                "description": "Deletes the customer together with its tickets, issues, and snapshots.",
                "tags": [
                    "Customers"
                ],
                "summary": "Delete a customer",
                "operationId": "deleteCustomer",
                "parameters": [
                    {
                        "type": "integer",
                        "minimum": 1,
                        "description": "Customer ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "400": {
                        "description": "Bad request",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Customer not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "patch": {
                "description": "Applies a partial update. Credentials sent as empty strings are cleared.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Customers"
                ],
                "summary": "Update a customer",
                "operationId": "updateCustomer",
                "parameters": [
                    {
                        "type": "integer",
                        "minimum": 1,
                        "description": "Customer ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Fields to change",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.UpdateCustomerRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.CustomerView"
                        }
                    },
                    "400": {
                        "description": "Bad request",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Customer not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/customers/{id}/differences": {
            "get": {
                "description": "Compares the customer's live records with the snapshots taken the day before the report date.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Differences"
                ],
                "summary": "Daily differences for a customer",
                "operationId": "getDifferences",
                "parameters": [
                    {
                        "type": "integer",
                        "minimum": 1,
                        "description": "Customer ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "example": "2024-01-15",
                        "description": "Report date (YYYY-MM-DD); defaults to today in UTC",
                        "name": "date",
                        "in": "query"
                    },
                    {
                        "type": "boolean",
                        "default": false,
                        "description": "Also report records missing from the live set",
                        "name": "include_removed",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.DailyDifferences"
                        }
                    },
                    "400": {
                        "description": "Invalid id, date, or flag",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Customer not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/customers/{id}/jira-issues": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Records"
                ],
                "summary": "List a customer's Jira issues",
                "operationId": "listJiraIssues",
                "parameters": [
                    {
                        "type": "integer",
                        "minimum": 1,
                        "description": "Customer ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Return 304 if ETag matches",
                        "name": "If-None-Match",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/domain.JiraIssue"
                            }
                        },
                        "headers": {
                            "ETag": {
                                "type": "string",
                                "description": "Weak ETag for current result"
                            }
                        }
                    },
                    "304": {
                        "description": "Not Modified",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "400": {
                        "description": "Bad request",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Customer not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/customers/{id}/sync/jira": {
            "post": {
                "description": "Upserts every issue returned by Jira. Per-issue failures are reported in errors; the call still succeeds.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Sync"
                ],
                "summary": "Pull Jira issues for a customer",
                "operationId": "syncJira",
                "parameters": [
                    {
                        "type": "integer",
                        "minimum": 1,
                        "description": "Customer ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Replays the first result for a repeated key",
                        "name": "Idempotency-Key",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.SyncResult"
                        }
                    },
                    "400": {
                        "description": "Bad request",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Customer not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/customers/{id}/sync/zendesk": {
            "post": {
                "description": "Upserts every ticket returned by Zendesk. Per-ticket failures are reported in errors; the call still succeeds.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Sync"
                ],
                "summary": "Pull Zendesk tickets for a customer",
                "operationId": "syncZendesk",
                "parameters": [
                    {
                        "type": "integer",
                        "minimum": 1,
                        "description": "Customer ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Replays the first result for a repeated key",
                        "name": "Idempotency-Key",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.SyncResult"
                        }
                    },
                    "400": {
                        "description": "Bad request",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Customer not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/customers/{id}/zendesk-tickets": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Records"
                ],
                "summary": "List a customer's Zendesk tickets",
                "operationId": "listZendeskTickets",
                "parameters": [
                    {
                        "type": "integer",
                        "minimum": 1,
                        "description": "Customer ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Return 304 if ETag matches",
                        "name": "If-None-Match",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/domain.ZendeskTicket"
                            }
                        },
                        "headers": {
                            "ETag": {
                                "type": "string",
                                "description": "Weak ETag for current result"
                            }
                        }
                    },
                    "304": {
                        "description": "Not Modified",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "400": {
                        "description": "Bad request",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Customer not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/snapshots/daily": {
            "post": {
                "description": "Copies every live ticket and issue into the snapshot tables for the given day. Re-running a day replaces its rows.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Snapshots"
                ],
                "summary": "Write the daily snapshots",
                "operationId": "writeDailySnapshots",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Replays the stored counts for a repeated key",
                        "name": "Idempotency-Key",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "example": "2024-01-15",
                        "description": "Day to stamp (YYYY-MM-DD); defaults to today in UTC",
                        "name": "date",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.SnapshotResponse"
                        },
                        "headers": {
                            "Idempotency-Replayed": {
                                "type": "string",
                                "description": "true when the response was replayed"
                            }
                        }
                    },
                    "400": {
                        "description": "Invalid date",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "One or both kinds failed",
                        "schema": {
                            "$ref": "#/definitions/handlers.SnapshotFailureResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "domain.ChangeType": {
            "type": "string",
            "enum": [
                "new",
                "updated",
                "status_changed",
                "assignee_changed",
                "removed"
            ],
            "x-enum-varnames": [
                "ChangeNew",
                "ChangeUpdated",
                "ChangeStatusChanged",
                "ChangeAssigneeChanged",
                "ChangeRemoved"
            ]
        },
        "domain.DailyDifferences": {
            "type": "object",
            "properties": {
                "customer_id": {
                    "type": "integer"
                },
                "date": {
                    "type": "string"
                },
                "jira_differences": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.IssueDifference"
                    }
                },
                "zendesk_differences": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.TicketDifference"
                    }
                }
            }
        },
        "domain.IssueDifference": {
            "type": "object",
            "properties": {
                "assignee": {
                    "type": "string"
                },
                "change_type": {
                    "$ref": "#/definitions/domain.ChangeType"
                },
                "current_status": {
                    "type": "string"
                },
                "issue_key": {
                    "type": "string"
                },
                "issue_url": {
                    "type": "string"
                },
                "previous_status": {
                    "type": "string"
                },
                "project": {
                    "type": "string"
                },
                "summary": {
                    "type": "string"
                }
            }
        },
        "domain.TicketDifference": {
            "type": "object",
            "properties": {
                "change_type": {
                    "$ref": "#/definitions/domain.ChangeType"
                },
                "current_status": {
                    "type": "string"
                },
                "last_update": {
                    "type": "string"
                },
                "previous_status": {
                    "type": "string"
                },
                "requester": {
                    "type": "string"
                },
                "subject": {
                    "type": "string"
                },
                "ticket_id": {
                    "type": "integer"
                },
                "ticket_url": {
                    "type": "string"
                }
            }
        },
        "domain.JiraIssue": {
            "type": "object",
            "properties": {
                "assignee": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string"
                },
                "customer_id": {
                    "type": "integer"
                },
                "id": {
                    "type": "integer"
                },
                "issue_key": {
                    "type": "string"
                },
                "issue_url": {
                    "type": "string"
                },
                "last_update": {
                    "type": "string"
                },
                "project": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                },
                "summary": {
                    "type": "string"
                },
                "updated_at": {
                    "type": "string"
                }
            }
        },
        "domain.ZendeskTicket": {
            "type": "object",
            "properties": {
                "created_at": {
                    "type": "string"
                },
                "customer_id": {
                    "type": "integer"
                },
                "id": {
                    "type": "integer"
                },
                "last_update": {
                    "type": "string"
                },
                "requester": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                },
                "subject": {
                    "type": "string"
                },
                "ticket_id": {
                    "type": "integer"
                },
                "ticket_url": {
                    "type": "string"
                },
                "updated_at": {
                    "type": "string"
                }
            }
        },
        "domain.SyncResult": {
            "type": "object",
            "properties": {
                "errors": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "synced": {
                    "type": "integer"
                }
            }
        },
        "handlers.CreateCustomerRequest": {
            "type": "object",
            "required": [
                "company_name",
                "slack_channel"
            ],
            "properties": {
                "company_name": {
                    "type": "string",
                    "maxLength": 255,
                    "example": "Acme Corp"
                },
                "jira_api_token": {
                    "type": "string"
                },
                "jira_email": {
                    "type": "string",
                    "example": "ops@acme.com"
                },
                "jira_host": {
                    "type": "string",
                    "maxLength": 255,
                    "example": "acme.atlassian.net"
                },
                "slack_channel": {
                    "type": "string",
                    "maxLength": 255,
                    "example": "#acme-support"
                },
                "zendesk_api_token": {
                    "type": "string"
                },
                "zendesk_email": {
                    "type": "string",
                    "example": "support@acme.com"
                },
                "zendesk_subdomain": {
                    "type": "string",
                    "maxLength": 255,
                    "example": "acme"
                }
            }
        },
        "handlers.UpdateCustomerRequest": {
            "type": "object",
            "properties": {
                "company_name": {
                    "type": "string",
                    "maxLength": 255
                },
                "jira_api_token": {
                    "type": "string"
                },
                "jira_email": {
                    "type": "string"
                },
                "jira_host": {
                    "type": "string",
                    "maxLength": 255
                },
                "slack_channel": {
                    "type": "string",
                    "maxLength": 255
                },
                "zendesk_api_token": {
                    "type": "string"
                },
                "zendesk_email": {
                    "type": "string"
                },
                "zendesk_subdomain": {
                    "type": "string",
                    "maxLength": 255
                }
            }
        },
        "handlers.CustomerView": {
            "type": "object",
            "properties": {
                "company_name": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string"
                },
                "has_jira_token": {
                    "type": "boolean"
                },
                "has_zendesk_token": {
                    "type": "boolean"
                },
                "id": {
                    "type": "integer"
                },
                "jira_email": {
                    "type": "string"
                },
                "jira_host": {
                    "type": "string"
                },
                "slack_channel": {
                    "type": "string"
                },
                "updated_at": {
                    "type": "string"
                },
                "zendesk_email": {
                    "type": "string"
                },
                "zendesk_subdomain": {
                    "type": "string"
                }
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {
                    "description": "Stable, machine-readable code (see errors.go constants)",
                    "type": "string",
                    "example": "not_found"
                },
                "message": {
                    "description": "Human-readable message (safe to show to users)",
                    "type": "string",
                    "example": "customer not found"
                },
                "request_id": {
                    "description": "Correlates server logs and client errors",
                    "type": "string",
                    "example": "123e4567-e89b-12d3-a456-426614174000"
                }
            }
        },
        "handlers.ListCustomersResponse": {
            "type": "object",
            "properties": {
                "customers": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/handlers.CustomerView"
                    }
                },
                "pagination": {
                    "$ref": "#/definitions/handlers.Pagination"
                }
            }
        },
        "handlers.Pagination": {
            "type": "object",
            "properties": {
                "has_next": {
                    "type": "boolean"
                },
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total": {
                    "type": "integer"
                },
                "total_pages": {
                    "type": "integer"
                }
            }
        },
        "handlers.SnapshotFailureResponse": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string",
                    "example": "snapshot_failed"
                },
                "date": {
                    "type": "string",
                    "example": "2024-01-15"
                },
                "issue_snapshots_written": {
                    "type": "integer"
                },
                "message": {
                    "type": "string"
                },
                "request_id": {
                    "type": "string"
                },
                "ticket_snapshots_written": {
                    "type": "integer"
                }
            }
        },
        "handlers.SnapshotResponse": {
            "type": "object",
            "properties": {
                "date": {
                    "type": "string",
                    "example": "2024-01-15"
                },
                "issue_snapshots_written": {
                    "type": "integer"
                },
                "ticket_snapshots_written": {
                    "type": "integer"
                }
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
	Title:            "Support Tracker API",
	Description:      "Tracks customers' Zendesk tickets and Jira issues and reports what changed since the previous day.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
