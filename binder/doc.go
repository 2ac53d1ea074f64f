// Package binder decodes HTTP request bodies for handler.Wrap.
package binder
