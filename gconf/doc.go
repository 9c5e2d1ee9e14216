/*
Package gconf implements a configuration store intended to be used as a global,
in-database configuration.

A configuration is a singleton stored under a package name. It is loaded from
the "conf" section of the genesis file and can be changed later by its owner
with a patch message.

The package also defines the global custody Policy, stored under the
"keyward" key, together with UpdatePolicyMsg.
*/
package gconf
