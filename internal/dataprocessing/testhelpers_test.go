package dataprocessing

import (
	"bytes"
	"testing"

	"growthdash/internal/shared/testutil"
)

const testSectorSheet = testutil.SectorSheet

var (
	fullHeader = testutil.FinancialHeader
	companyRow = testutil.CompanyRow
)

func buildWorkbook(t *testing.T, financial [][]interface{}, lookup [][]interface{}) *bytes.Buffer {
	return testutil.BuildWorkbook(t, financial, lookup)
}

func sampleWorkbook(t *testing.T) *bytes.Buffer {
	return testutil.SampleWorkbook(t)
}
