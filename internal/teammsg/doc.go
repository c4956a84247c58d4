// Package teammsg is the message set robots of one team exchange during a
// match, and the routines that react to it.
package teammsg
