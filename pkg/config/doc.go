// Package config resolves process configuration from environment
// variables and loads endpoint collections from YAML or JSON files.
//
// The environment surface is small: PORT picks the single listen port,
// NODE_ENV gates sample seeding, and TEAM_ENABLED / TEAM_REQUIRE_AUTH /
// ADMIN_TOKENS configure admin API authentication.
//
// Collection files bundle HTTP, WebSocket, and GraphQL endpoint
// definitions:
//
//	version: "1.0"
//	name: My API
//	endpoints:
//	  - method: GET
//	    path: /users/:id
//	    statusCode: 200
//	    response: {id: "{{$request.path.id}}"}
//
// A path passed to Load may be a single file or a directory; directories
// are scanned recursively for .yaml, .yml, and .json files.
package config
