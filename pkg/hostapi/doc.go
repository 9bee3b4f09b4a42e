// Package hostapi provides a transparent interception layer over a nested
// host automation API.
//
// The host API is modelled as a tree of Namespace values whose leaves are
// Callable operations or plain values. Wrapping the host root with a Proxy
// yields a drop-in replacement for it: every property read is checked
// against the active override table before it falls through to the real
// API, at any depth.
//
// # Naming Convention
//
// A substitute meant to replace root.nsA.nsB.leaf is registered under the
// flattened key "nsA_nsB_leaf". Only the exact flattened key of a leaf path
// is consulted. There is no prefix matching and a whole namespace cannot be
// replaced at once.
//
// Segments are joined without escaping, so a segment that itself contains
// an underscore produces a key that could also be read as a longer path.
// Path.Ambiguous and Collisions report these cases.
//
// # Lifecycle
//
//  1. Start: the override table is empty and every access delegates to the host
//  2. Register: a new table replaces the old one wholesale (never merged)
//  3. Access: proxies read the current table on every lookup, so a root
//     obtained before a registration observes the new table
//
// # Example Usage
//
//	ic := hostapi.New(host)
//	ic.Register(hostapi.Overrides{
//	    "windows_create": hostapi.Func(mockCreate),
//	})
//
//	// mockCreate runs, the real windows.create never does
//	_, err := hostapi.Invoke(ctx, ic.Root(), "windows.create", opts)
package hostapi
