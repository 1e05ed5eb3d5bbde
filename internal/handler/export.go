package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/carpool/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV statement.
var csvHeaders = []string{
	"entry_id", "created_at", "kind", "amount", "balance_after",
	"booking_id", "departure_city", "arrival_city", "departure_date",
}

// GetLedger implements GET /users/me/ledger.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) GetLedger(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	format, err := queryString(r.URL.Query(), "format")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	wantCSV := false
	if format != nil {
		switch *format {
		case "json":
		case "csv":
			wantCSV = true
		default:
			WriteError(w, r, fmt.Errorf("%w: format must be json or csv", domain.ErrValidation))
			return
		}
	}

	rows, err := s.statements.Statement(r.Context(), p.UserID)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	if wantCSV {
		writeCSV(w, rows)
		return
	}
	out := make([]StatementRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, statementRowToResponse(row))
	}
	writeJSON(w, http.StatusOK, out)
}

// writeCSV encodes rows as CSV with a header row and sends them as an attachment.
func writeCSV(w http.ResponseWriter, rows []domain.StatementRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	cw.Write(csvHeaders)
	for _, r := range rows {
		//nolint:errcheck
		cw.Write(statementRowToCSVRecord(r))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="ledger.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("handler: write csv", "error", err)
	}
}

// statementRowToResponse maps a domain.StatementRow to the wire type.
// Fields that are empty strings become nil pointers (omitempty in JSON).
func statementRowToResponse(r domain.StatementRow) StatementRow {
	row := StatementRow{
		EntryId:      r.EntryID,
		CreatedAt:    r.CreatedAt,
		Kind:         r.Kind,
		Amount:       r.Amount,
		BalanceAfter: r.BalanceAfter,
	}
	if r.BookingID != "" {
		row.BookingId = &r.BookingID
	}
	if r.DepartureCity != "" {
		row.DepartureCity = &r.DepartureCity
	}
	if r.ArrivalCity != "" {
		row.ArrivalCity = &r.ArrivalCity
	}
	if r.DepartureDate != nil {
		row.DepartureDate = &openapi_types.Date{Time: *r.DepartureDate}
	}
	return row
}

// statementRowToCSVRecord encodes a domain.StatementRow as a flat string slice.
// Amounts use the two-decimal Credits form; a nil departure date is "".
func statementRowToCSVRecord(r domain.StatementRow) []string {
	departure := ""
	if r.DepartureDate != nil {
		departure = r.DepartureDate.UTC().Format(time.DateOnly)
	}
	return []string{
		r.EntryID,
		r.CreatedAt.UTC().Format(time.RFC3339),
		string(r.Kind),
		r.Amount.String(),
		r.BalanceAfter.String(),
		r.BookingID,
		r.DepartureCity,
		r.ArrivalCity,
		departure,
	}
}
