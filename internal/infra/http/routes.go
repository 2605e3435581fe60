package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/estacionsur/stationd/internal/domain/attendance"
	"github.com/estacionsur/stationd/internal/domain/closure"
	"github.com/estacionsur/stationd/internal/domain/errs"
	"github.com/estacionsur/stationd/internal/domain/fuel"
	"github.com/estacionsur/stationd/internal/domain/intake"
	"github.com/estacionsur/stationd/internal/domain/shifts"
	"github.com/estacionsur/stationd/internal/domain/tanks"
)

func registerRoutes(mux *http.ServeMux, d Deps) {
	mux.HandleFunc("GET /shifts/open", func(w http.ResponseWriter, r *http.Request) {
		sh, err := d.ShiftStore.GetOpen(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		if sh == nil {
			writeErr(w, errs.Validation("no open shift"))
			return
		}
		writeJSON(w, http.StatusOK, sh)
	})

	mux.HandleFunc("POST /shifts/open", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UID   string  `json:"uid"`
			Email *string `json:"email"`
		}
		if !decode(w, r, &req) {
			return
		}
		id, err := d.Shifts.Open(r.Context(), req.UID, req.Email)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": id})
	})

	mux.HandleFunc("POST /shifts/{id}/close", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UID          string                   `json:"uid"`
			Cash         float64                  `json:"cash"`
			Cards        []shifts.CardPayment     `json:"cards"`
			Transfers    []shifts.TransferPayment `json:"transfers"`
			TankForGrade map[fuel.Grade]string    `json:"tank_for_grade"`
		}
		if !decode(w, r, &req) {
			return
		}
		in := shifts.CloseInput{
			Cash:         req.Cash,
			Cards:        req.Cards,
			Transfers:    req.Transfers,
			TankForGrade: req.TankForGrade,
		}
		if err := d.Shifts.Close(r.Context(), r.PathValue("id"), in, req.UID); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
	})

	mux.HandleFunc("POST /shifts/{id}/deductions/retry", func(w http.ResponseWriter, r *http.Request) {
		if err := d.Shifts.RetrySalesDeduction(r.Context(), r.PathValue("id")); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
	})

	mux.HandleFunc("GET /shifts/{id}/deductions", func(w http.ResponseWriter, r *http.Request) {
		list, err := d.Tanks.DeductionsForShift(r.Context(), r.PathValue("id"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	})

	mux.HandleFunc("GET /hoses", func(w http.ResponseWriter, r *http.Request) {
		list, err := d.Hoses.List(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	})

	mux.HandleFunc("POST /shifts/{id}/hoses/{hose}/start", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Grade  fuel.Grade `json:"grade"`
			Litres float64    `json:"litres"`
		}
		if !decode(w, r, &req) {
			return
		}
		if err := d.Hoses.RecordStart(r.Context(), r.PathValue("id"), r.PathValue("hose"), req.Grade, req.Litres); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
	})

	mux.HandleFunc("POST /shifts/{id}/hoses/{hose}/end", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Litres float64 `json:"litres"`
		}
		if !decode(w, r, &req) {
			return
		}
		if err := d.Hoses.RecordEnd(r.Context(), r.PathValue("id"), r.PathValue("hose"), req.Litres); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
	})

	mux.HandleFunc("GET /tanks", func(w http.ResponseWriter, r *http.Request) {
		list, err := d.Tanks.List(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	})

	mux.HandleFunc("POST /tanks/{id}/readings", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ShiftID         string   `json:"shift_id"`
			StickCm         *float64 `json:"stick_cm"`
			TelemetryLitres *float64 `json:"telemetry_litres"`
			UID             string   `json:"uid"`
			Email           *string  `json:"email"`
		}
		if !decode(w, r, &req) {
			return
		}
		id, err := d.Tanks.RecordReading(r.Context(), tanks.Reading{
			ShiftID:         req.ShiftID,
			TankID:          r.PathValue("id"),
			StickCm:         req.StickCm,
			TelemetryLitres: req.TelemetryLitres,
			TakenByUID:      req.UID,
			TakenByEmail:    req.Email,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"id": id})
	})

	mux.HandleFunc("POST /intakes", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Supplier        string     `json:"supplier"`
			PORef           *string    `json:"po_ref"`
			DeliveryNoteRef *string    `json:"delivery_note_ref"`
			InvoiceRef      *string    `json:"invoice_ref"`
			TankID          string     `json:"tank_id"`
			Grade           fuel.Grade `json:"grade"`
			TempC           *float64   `json:"temp_c"`
			InvoicedLitres  float64    `json:"invoiced_litres"`
			PreStickLitres  *float64   `json:"pre_stick_litres"`
			PostStickLitres *float64   `json:"post_stick_litres"`
			UID             string     `json:"uid"`
			Email           *string    `json:"email"`
		}
		if !decode(w, r, &req) {
			return
		}
		rec, err := d.Intakes.Create(r.Context(), intake.Input{
			Supplier:        req.Supplier,
			PORef:           req.PORef,
			DeliveryNoteRef: req.DeliveryNoteRef,
			InvoiceRef:      req.InvoiceRef,
			TankID:          req.TankID,
			Grade:           req.Grade,
			TempC:           req.TempC,
			InvoicedLitres:  req.InvoicedLitres,
			PreStickLitres:  req.PreStickLitres,
			PostStickLitres: req.PostStickLitres,
			CreatedByUID:    req.UID,
			CreatedByEmail:  req.Email,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	})

	mux.HandleFunc("GET /closures/{date}", func(w http.ResponseWriter, r *http.Request) {
		rep, err := d.Closures.Get(r.Context(), r.PathValue("date"))
		if err != nil {
			writeErr(w, err)
			return
		}
		if r.URL.Query().Get("format") == "xlsx" {
			w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="cierre-%s.xlsx"`, rep.DateStr))
			if err := closure.WriteExcel(rep, w); err != nil {
				writeErr(w, err)
			}
			return
		}
		writeJSON(w, http.StatusOK, rep)
	})

	mux.HandleFunc("POST /attendance", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UID     string  `json:"uid"`
			Email   *string `json:"email"`
			Type    string  `json:"type"`
			ShiftID *string `json:"shift_id"`
		}
		if !decode(w, r, &req) {
			return
		}
		id, err := d.Attendance.Record(r.Context(), req.UID, req.Email, attendance.EventType(req.Type), req.ShiftID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"id": id})
	})

	mux.HandleFunc("GET /attendance/{date}", func(w http.ResponseWriter, r *http.Request) {
		list, err := d.Attendance.ListByDate(r.Context(), r.PathValue("date"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErr(w, errs.Validation("invalid request body: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errs.IsValidation(err):
		status = http.StatusBadRequest
	case errs.IsConflict(err):
		status = http.StatusConflict
	case errs.IsStorage(err):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
