// Package types defines the Store and Table interfaces, entity types, and
// standard errors for the pidsearch identifier index.
package types
