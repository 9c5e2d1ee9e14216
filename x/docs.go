/*
Package x contains the extensions of the custody engine.

Extensions implement common functionality (Handler, Decorator,
etc.) and are combined together in the app package. Each extension
owns its buckets and exposes a read only controller to the others.
*/
package x
