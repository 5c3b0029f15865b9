// Package taskgroup manages user-defined tasks organised into named
// groups.
//
// Groups are read from YAML:
//
//	groups:
//	  - name: editing
//	    tasks:
//	      - name: signature
//	        phrases: ["s,i,g"]
//	        language: shell
//	        script: xdotool type "Best regards"
//	        time_saved: 3s
//
// A Manager registers every task whose group and own flag are enabled with
// a dispatcher, and keeps those registrations in step as tasks are
// enabled, disabled and rebound.
package taskgroup
