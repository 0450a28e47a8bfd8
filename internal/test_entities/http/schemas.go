package http

import (
	"github.com/GoSim-25-26J-441/entity-service/internal/pipeline/validate"
)

var idParam = validate.Field{
	Name:            "id",
	In:              validate.Path,
	Type:            validate.Identifier,
	Required:        true,
	Message:         "Invalid ID format",
	RequiredMessage: "ID parameter is required",
}

func nameField(required bool) validate.Field {
	return validate.Field{
		Name: "name", In: validate.Body, Type: validate.String, Required: required, Trim: true,
		Message:         "Name must be a string",
		RequiredMessage: "Name is required",
		Rules: []validate.Rule{
			{Tag: "required", Message: "Name is required"},
			{Tag: "min=2,max=100", Message: "Name must be between 2 and 100 characters"},
			{Tag: "entityname", Message: "Name can only contain letters, numbers, spaces, hyphens, and underscores"},
		},
	}
}

var bodyFields = []validate.Field{
	{
		Name: "description", In: validate.Body, Type: validate.String, Trim: true,
		Message: "Description must be a string",
		Rules:   []validate.Rule{{Tag: "max=500", Message: "Description cannot exceed 500 characters"}},
	},
	{
		Name: "status", In: validate.Body, Type: validate.String, Trim: true,
		Message: "Status must be one of: active, inactive, pending",
		Rules:   []validate.Rule{{Tag: "oneof=active inactive pending", Message: "Status must be one of: active, inactive, pending"}},
	},
	{
		Name: "value", In: validate.Body, Type: validate.Number,
		Message: "Value must be a number",
		Rules:   []validate.Rule{{Tag: "gte=0,lte=999999.99", Message: "Value must be between 0 and 999999.99"}},
	},
	{
		Name: "tags", In: validate.Body, Type: validate.Array,
		Message: "Tags must be an array",
		Rules:   []validate.Rule{{Tag: "max=10", Message: "Cannot have more than 10 tags"}},
		Items: &validate.Field{
			Name: "tags", In: validate.Body, Type: validate.String, Trim: true,
			Message: "Each tag must be a string with max 50 characters",
			Rules:   []validate.Rule{{Tag: "max=50", Message: "Each tag must be a string with max 50 characters"}},
		},
	},
	{
		Name: "metadata", In: validate.Body, Type: validate.Object,
		Message: "Metadata must be an object",
		Rules:   []validate.Rule{{Tag: "max=20", Message: "Metadata cannot have more than 20 properties"}},
	},
}

// mutableFields are the body keys an update may carry.
var mutableFields = []string{"name", "description", "status", "value", "tags", "metadata"}

var (
	createSchema = validate.Schema{
		Fields: append([]validate.Field{nameField(true)}, bodyFields...),
	}

	updateSchema = validate.Schema{
		Fields:       append([]validate.Field{idParam, nameField(false)}, bodyFields...),
		AnyOf:        mutableFields,
		AnyOfMessage: "At least one valid field must be provided for update",
	}

	idSchema = validate.Schema{Fields: []validate.Field{idParam}}

	listSchema = validate.Schema{
		Fields: []validate.Field{
			{
				Name: "page", In: validate.Query, Type: validate.Integer,
				Message: "Page must be a positive integer",
				Rules:   []validate.Rule{{Tag: "gte=1", Message: "Page must be a positive integer"}},
			},
			{
				Name: "limit", In: validate.Query, Type: validate.Integer,
				Message: "Limit must be between 1 and 100",
				Rules:   []validate.Rule{{Tag: "gte=1,lte=100", Message: "Limit must be between 1 and 100"}},
			},
			{
				Name: "status", In: validate.Query, Type: validate.String, Trim: true,
				Rules: []validate.Rule{{Tag: "oneof=active inactive pending", Message: "Status must be one of: active, inactive, pending"}},
			},
			{
				Name: "sortBy", In: validate.Query, Type: validate.String, Trim: true,
				Rules: []validate.Rule{{Tag: "oneof=name createdAt updatedAt value status", Message: "SortBy must be one of: name, createdAt, updatedAt, value, status"}},
			},
			{
				Name: "sortOrder", In: validate.Query, Type: validate.String, Trim: true,
				Rules: []validate.Rule{{Tag: "oneof=asc desc", Message: "SortOrder must be either asc or desc"}},
			},
			{
				Name: "search", In: validate.Query, Type: validate.String, Trim: true,
				Rules: []validate.Rule{{Tag: "max=100", Message: "Search query cannot exceed 100 characters"}},
			},
		},
	}
)
