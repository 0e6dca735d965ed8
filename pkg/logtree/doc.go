// Package logtree implements the nested, indentable run log.
//
// A Log is an immutable forest of nodes rooted at a base indent. Leaves are
// severity-tagged lines; context nodes are named scopes whose subtree sits one
// indent level deeper. Nested logs are rebased when they are inserted, so a
// log built in isolation can be attached under any parent and still render
// with correct indentation.
//
// Rendering is pre-order with four spaces per level:
//
//	login
//	    INFO: navigate to https://example.com/login
//	    fill credentials
//	        INFO: type into input[name=user]
//	    WARN: banner not displayed
package logtree
