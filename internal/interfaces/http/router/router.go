// Package router mounts the posync HTTP API.
package router

import (
	"github.com/gin-gonic/gin"
)

// APIPrefix is where the versioned API lives
const APIPrefix = "/api/v1"

// Route binds one method and path to its handler chain
type Route struct {
	Method   string
	Path     string
	Handlers []gin.HandlerFunc
}

// Group is a resource prefix with its routes. Middleware applies to the
// group's routes and to every nested group.
type Group struct {
	Prefix     string
	Middleware []gin.HandlerFunc
	Routes     []Route
	Groups     []Group
}

// Mount registers the group below parent
func (g Group) Mount(parent gin.IRouter) {
	rg := parent.Group(g.Prefix, g.Middleware...)
	for _, r := range g.Routes {
		rg.Handle(r.Method, r.Path, r.Handlers...)
	}
	for _, sub := range g.Groups {
		sub.Mount(rg)
	}
}

func route(method, path string, handlers ...gin.HandlerFunc) Route {
	return Route{Method: method, Path: path, Handlers: handlers}
}
