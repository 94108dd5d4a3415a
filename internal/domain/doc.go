// Package domain models energy and water demand surveys collected with
// KoboToolbox and the canonical records produced from them.
//
// # Data Source
//
// Submissions come from a single Kobo form that branches by respondent type.
// The export is flat JSON: every question is a key of the form
// "<group>/<question><suffix>", e.g. "H_16/fridge_power_H" is the power of the
// fridge reported in group H_16 of the household branch.
//
// # Survey Conventions
//
// Respondent type:
//
//	Chosen on the first page through yes/no markers "G_0/respondent_<type>".
//	The first marker answered "yes" wins; an unmarked form is a household.
//
// Group suffixes:
//
//	Households "_H", services "_S", large-scale farms "_AP". Businesses and the
//	local authority have no suffix.
//
// Time of use:
//
//	Multi-select over six buckets "0-7 7-10 10-12 12-18 18-22 22-24", exported
//	as a space separated string. See package timewindow.
//
// Quantities:
//
//	Fuel in kilogram, liter, bag or cylinder per day, week or month. Water in
//	liters or buckets of a declared size. Durations are hours per day.
//
// Unknown values:
//
//	Kobo omits unanswered questions from the export. Blank strings are treated
//	the same as absent fields.
//
// # Numerosity
//
// One submission stands for many real households or businesses. The local
// authority submission reports how many of each kind exist in the village, and
// every sampled respondent is weighted by count/sampled. Household income
// terciles are only known once the whole batch has been read.
package domain
