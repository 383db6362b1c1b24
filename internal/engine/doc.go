// Package engine recovers class and method names from logging calls.
//
// Obfuscated programs keep the string literals passed to logging helpers.
// Two kinds of call carry names:
//
// Factory calls (logger creation in a static initializer or constructor)
// take the class's own name. Location calls (the log-site setter of a
// fluent logger) take the class name and the enclosing method's name.
//
// ARCHITECTURE:
//
//   - Session resolves the factory and location refs once per load, from
//     configuration or by structural discovery over the logging library.
//   - Scanner walks a class's methods, matches invokes against the refs
//     and asks the Tracer for the string arguments.
//   - Tracer walks backward from a call through bounded move chains to a
//     const-string.
//   - SubtypeResolver lets location calls match through implementing or
//     renamed types.
//   - RenameClass and RenameMethod validate and apply names via the host.
//
// Every failure at these boundaries is local. A bad configured ref or a
// failed discovery leaves its category inert; a method that will not
// decode is skipped; a rejected name is not applied. The worst outcome of
// a load is zero renames.
//
// Applied renames are stamped by a logical Clock and may be recorded in a
// Journal, grouped by session ID.
package engine
