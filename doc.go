// Package hijack routes interposed I/O and socket calls either to the host
// operating system or to a library kernel linked into the same process.
//
// Every call is classified before anything runs. Calls governed by a single
// descriptor follow that descriptor's namespace and socket follows the
// address family. Descriptor sets that span both namespaces are refused.
package hijack
