// Package graph exposes the todo service over GraphQL.
//
// The schema is served by graph-gophers/graphql-go through an echo router.
// Inputs are validated here before they reach the service; store failures are
// logged and reported to clients as a generic internal error.
package graph

import (
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/pkg/errors"

	"github.com/goliatone/go-todos/logging"
)

// Schema is the GraphQL SDL for the todo API.
const Schema = `
schema {
	query: Query
	mutation: Mutation
}

scalar Time

type Todo {
	id: ID!
	title: String!
	completed: Boolean!
	createdAt: Time!
	updatedAt: Time!
}

input CreateTodoInput {
	title: String!
	completed: Boolean
}

input UpdateTodoInput {
	title: String
	completed: Boolean
}

type Query {
	todos: [Todo!]!
	todo(id: ID!): Todo
}

type Mutation {
	createTodo(input: CreateTodoInput!): Todo!
	updateTodo(id: ID!, input: UpdateTodoInput!): Todo
	deleteTodo(id: ID!): Boolean!
}
`

// NewSchema parses Schema and binds it to a resolver over svc.
func NewSchema(svc TodoService, logger logging.Logger) (*graphql.Schema, error) {
	schema, err := graphql.ParseSchema(Schema, NewResolver(svc, logger))
	if err != nil {
		return nil, errors.Wrap(err, "parse graphql schema")
	}
	return schema, nil
}
