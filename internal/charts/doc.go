// Package charts renders the dashboard's bar charts with gonum/plot.
//
// Company charts draw one bar per company and one series per sector; sector
// charts draw one bar per sector median. Both are encoded as SVG so they can be
// served directly or embedded in the HTML dashboard.
package charts
