package graphql

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mockbird/mockbird/pkg/endpoint"
)

func TestOperationParsesTypeAndName(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantType endpoint.OperationType
		wantName string
	}{
		{"named query", `query GetUser { user { id } }`, endpoint.OperationQuery, "GetUser"},
		{"named mutation", `mutation CreateUser($in: UserInput!) { createUser(input: $in) { id } }`, endpoint.OperationMutation, "CreateUser"},
		{"named subscription", `subscription OnMessage { messageAdded { id } }`, endpoint.OperationSubscription, "OnMessage"},
		{"anonymous query", `query { user { id } }`, endpoint.OperationQuery, ""},
		{"shorthand selection set", `{ user { id } }`, endpoint.OperationQuery, ""},
		{"leading whitespace", "\n\t query GetUser { user { id } }", endpoint.OperationQuery, "GetUser"},
		{"garbage defaults to query", `not graphql at all`, endpoint.OperationQuery, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &Request{Query: tt.query}
			op := req.Operation()
			assert.Equal(t, tt.wantType, op.Type)
			assert.Equal(t, tt.wantName, op.Name)
		})
	}
}

func TestOperationNameFromBodyWins(t *testing.T) {
	req := &Request{
		Query:         `query GetUser { user { id } }`,
		OperationName: "Other",
	}
	op := req.Operation()
	assert.Equal(t, "Other", op.Name)
}

func TestOperationMultiOperationDocument(t *testing.T) {
	doc := `
		query GetUser { user { id } }
		mutation DeleteUser { deleteUser { id } }
	`

	// operationName selects the operation, which determines the type.
	op := (&Request{Query: doc, OperationName: "DeleteUser"}).Operation()
	assert.Equal(t, endpoint.OperationMutation, op.Type)
	assert.Equal(t, "DeleteUser", op.Name)

	// Without operationName the first operation is used.
	op = (&Request{Query: doc}).Operation()
	assert.Equal(t, endpoint.OperationQuery, op.Type)
	assert.Equal(t, "GetUser", op.Name)
}

func TestOperationRegexFallback(t *testing.T) {
	// Unbalanced braces defeat the AST parser but not the prefix scan.
	op := (&Request{Query: `mutation AddItem { addItem(`}).Operation()
	assert.Equal(t, endpoint.OperationMutation, op.Type)
	assert.Equal(t, "AddItem", op.Name)

	op = (&Request{Query: `subscription { events {`}).Operation()
	assert.Equal(t, endpoint.OperationSubscription, op.Type)
	assert.Equal(t, "", op.Name)
}
