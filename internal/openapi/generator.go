package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/crimemap/crimemap/internal/model"
)

const schemaRefPrefix = "#/components/schemas/"

// Generate builds the OpenAPI 3.1 document for the Query Service.
func Generate(baseURL, version string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "crimemap Query Service",
			Description: "Filtered reads over codes, neighborhoods and incidents, plus incident create and delete.",
			Version:     version,
		},
	}
	if baseURL != "" {
		doc.Servers = openapi3.Servers{{URL: baseURL}}
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{
		"Code":                  structSchema(model.Code{}),
		"Neighborhood":          structSchema(model.Neighborhood{}),
		"Incident":              structSchema(model.Incident{}),
		"DeleteIncidentRequest": structSchema(model.DeleteIncidentRequest{}),
	}
	doc.Components = &components
	doc.Paths = openapi3.NewPaths()

	doc.Paths.Set("/codes", &openapi3.PathItem{
		Get: listOperation("reference", "listCodes", "List incident codes ordered by code.",
			openapi3.Parameters{intListParam("code", "Comma-separated codes to include.")}, "Code"),
	})
	doc.Paths.Set("/neighborhoods", &openapi3.PathItem{
		Get: listOperation("reference", "listNeighborhoods", "List neighborhoods ordered by number.",
			openapi3.Parameters{intListParam("id", "Comma-separated neighborhood numbers to include.")}, "Neighborhood"),
	})
	doc.Paths.Set("/incidents", &openapi3.PathItem{
		Get: listOperation("incidents", "listIncidents", "List incidents, newest first.", incidentParams(), "Incident"),
	})
	doc.Paths.Set("/new-incident", &openapi3.PathItem{
		Put: mutationOperation("createIncident", "Create an incident. Fails if the case number exists.", "Incident"),
	})
	doc.Paths.Set("/remove-incident", &openapi3.PathItem{
		Delete: mutationOperation("deleteIncident", "Delete an incident by case number. Fails if it does not exist.", "DeleteIncidentRequest"),
	})

	return doc
}

func listOperation(tag, id, summary string, params openapi3.Parameters, itemSchema string) *openapi3.Operation {
	array := &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:  &openapi3.Types{"array"},
		Items: openapi3.NewSchemaRef(schemaRefPrefix+itemSchema, nil),
	}}
	responses := openapi3.NewResponses()
	desc := "Matching records (empty array when none match)"
	responses.Set("200", &openapi3.ResponseRef{Value: &openapi3.Response{
		Description: &desc,
		Content:     openapi3.NewContentWithJSONSchemaRef(array),
	}})
	addServerError(responses)

	return &openapi3.Operation{
		Tags:        []string{tag},
		Summary:     summary,
		OperationID: id,
		Parameters:  params,
		Responses:   responses,
	}
}

func mutationOperation(id, summary, bodySchema string) *openapi3.Operation {
	responses := openapi3.NewResponses()
	desc := "OK"
	responses.Set("200", &openapi3.ResponseRef{Value: &openapi3.Response{
		Description: &desc,
		Content:     textContent(),
	}})
	addServerError(responses)

	return &openapi3.Operation{
		Tags:        []string{"incidents"},
		Summary:     summary,
		OperationID: id,
		RequestBody: &openapi3.RequestBodyRef{Value: &openapi3.RequestBody{
			Required: true,
			Content:  openapi3.NewContentWithJSONSchemaRef(openapi3.NewSchemaRef(schemaRefPrefix+bodySchema, nil)),
		}},
		Responses: responses,
	}
}

// addServerError documents the single failure shape: 500 with a plain-text
// reason (conflict, not found, or a generic database error).
func addServerError(responses *openapi3.Responses) {
	desc := "Failure with a human-readable reason"
	responses.Set("500", &openapi3.ResponseRef{Value: &openapi3.Response{
		Description: &desc,
		Content:     textContent(),
	}})
}

func textContent() openapi3.Content {
	return openapi3.Content{
		"text/plain": &openapi3.MediaType{Schema: &openapi3.SchemaRef{Value: openapi3.NewStringSchema()}},
	}
}

func intListParam(name, desc string) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{
		Value: openapi3.NewQueryParameter(name).
			WithDescription(desc).
			WithSchema(openapi3.NewStringSchema()),
	}
}

func incidentParams() openapi3.Parameters {
	return openapi3.Parameters{
		&openapi3.ParameterRef{Value: openapi3.NewQueryParameter("start_date").
			WithDescription("Earliest date (YYYY-MM-DD), inclusive.").
			WithSchema(openapi3.NewStringSchema())},
		&openapi3.ParameterRef{Value: openapi3.NewQueryParameter("end_date").
			WithDescription("Latest date (YYYY-MM-DD), inclusive.").
			WithSchema(openapi3.NewStringSchema())},
		intListParam("code", "Comma-separated codes."),
		intListParam("grid", "Comma-separated police grids."),
		intListParam("neighborhood", "Comma-separated neighborhood numbers."),
		&openapi3.ParameterRef{Value: openapi3.NewQueryParameter("limit").
			WithDescription("Maximum rows. Missing, non-numeric or non-positive values mean 1000.").
			WithSchema(&openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"})},
	}
}
