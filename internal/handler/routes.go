package handler

import "net/http"

// Routes holds every handler served by the API
type Routes struct {
	Devices   *DeviceHandler
	Snapshots *SnapshotHandler
	Health    *HealthHandler
	Events    http.Handler // SSE stream; optional
}

// Register mounts the routes on mux
func (rt Routes) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /refresh-now", rt.Devices.RefreshNow)
	mux.HandleFunc("GET /labels", rt.Devices.ListLabels)
	mux.HandleFunc("POST /labels", rt.Devices.SetLabel)
	mux.HandleFunc("DELETE /labels/{mac}", rt.Devices.DeleteLabel)
	mux.HandleFunc("GET /labels-ui", rt.Devices.LabelsUI)

	mux.HandleFunc("GET /api/devices", rt.Devices.ListDevices)
	mux.HandleFunc("GET /api/devices/{mac}", rt.Devices.GetDevice)
	mux.HandleFunc("DELETE /api/devices/{mac}", rt.Devices.DeleteDevice)

	mux.HandleFunc("GET /api/snapshots", rt.Snapshots.ListSnapshots)
	mux.HandleFunc("GET /api/snapshots/latest", rt.Snapshots.LatestSnapshot)
	mux.HandleFunc("GET /api/snapshots/at", rt.Snapshots.SnapshotAt)
	mux.HandleFunc("GET /api/snapshots/{id}", rt.Snapshots.GetSnapshot)
	mux.HandleFunc("GET /api/snapshots/{id}/export", rt.Snapshots.ExportSnapshot)

	mux.HandleFunc("GET /healthz", rt.Health.Healthz)
	if rt.Events != nil {
		mux.Handle("GET /events", rt.Events)
	}
}
