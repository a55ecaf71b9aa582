// Package host is the runtime the composer launches.
//
// The Bridge runtime installs every module of a capability.Set into a
// Router, in registration order, then serves the application content
// over socket.io: content sends an "invoke" event naming a command and
// receives the handler's result in the acknowledgement. Run blocks until
// its context is cancelled or the content asks the host to quit.
//
// Any failure before the bridge is serving (a module that cannot be set
// up, an address that cannot be bound) is returned from Run as a startup
// failure. The composer treats that as fatal.
package host
