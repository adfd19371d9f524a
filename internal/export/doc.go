// Package export writes cleaned frames and binned metrics to CSV files and an
// Excel workbook.
package export
