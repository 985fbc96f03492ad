// Package matching assigns applicants to grade seats with a deferred
// acceptance round loop extended with sibling togetherness.
//
// A run boosts sibling facilities to the front of preference lists, groups
// applicants into togetherness units, then alternates proposal and
// resolution phases until every applicant is seated, every unseated
// applicant has exhausted its list, or the round cap is reached. A
// FallbackStrategy places whoever is left. Units whose members cannot keep
// proposing to a common facility are dissolved and continue individually.
//
// All run state lives in an Arena keyed by applicant id and seat key; units
// and holder sets only store ids.
package matching
