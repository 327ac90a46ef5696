// Package dataprocessing turns an uploaded financials workbook into the
// growth tables shown on the dashboard.
//
// The pipeline has four stateless stages, each a plain function of its input:
//
//	Workbook → LoadWorkbook → []FinancialRecord
//	         → CalculateGrowth → []GrowthRecord
//	         → AggregateSectors → []SectorGrowthRecord
//	         → ApplyFilter(selection) → DashboardView
//
// Missing or non-numeric inputs never abort a stage. They surface as undefined
// values, and growth slots record why they are undefined. Only structural
// problems with the workbook (unreadable file, missing sheet, missing ticker or
// company name column) are returned as errors.
package dataprocessing
