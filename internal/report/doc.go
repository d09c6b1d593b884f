// Package report exports stored articles and their analysis to an xlsx
// workbook for editorial review.
package report
