// Package runlog persists the history of matching runs so that past
// placements can be audited per applicant or facility.
package runlog
