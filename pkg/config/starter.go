package config

import (
	"fmt"
	"os"
)

// starterCollection is the file written by `mockbird init`.
const starterCollection = `# Mockbird collection. Load it with:
#   mockbird serve --config mockbird.yaml
version: "1.0"
name: starter

endpoints:
  - method: GET
    path: /users/:id
    statusCode: 200
    response:
      id: "{{$request.path.id}}"
      name: "{{$randomName}}"
      email: "{{$randomEmail}}"
    responseHeaders:
      X-Mock: "true"

  - method: POST
    path: /users
    statusCode: 201
    response:
      id: "{{$uuid}}"
      createdAt: "{{$timestamp}}"
    validation:
      required: [name, email]

  - method: GET
    path: /orders
    statusCode: 200
    conditionalResponses:
      - name: filtered
        conditions:
          - source: query
            field: status
            operator: eq
            value: shipped
        status: 200
        body: {orders: [{id: "o-1", status: shipped}]}
    response: {orders: []}

websocketEndpoints:
  - path: /echo
    onConnectMessage:
      type: text
      data: welcome
    messagePatterns:
      - matchType: contains
        pattern: ping
        response:
          type: text
          data: pong

graphqlEndpoints:
  - path: /graphql
    resolvers:
      - operationName: GetUser
        operationType: query
        responseData:
          user: {id: "1", name: Ada Lovelace}
`

// Starter returns the starter collection file contents.
func Starter() []byte {
	return []byte(starterCollection)
}

// WriteStarter writes the starter collection, refusing to overwrite an
// existing file.
func WriteStarter(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrFileExists, path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, Starter(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
