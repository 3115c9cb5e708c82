package gridsync

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTP struct {
	server *http.Server
	logger Logger

	port      uint16
	state     *ServerState
	authority *RaceAuthority
	live      *LiveHub
}

func NewHTTP(port uint16, state *ServerState, authority *RaceAuthority, live *LiveHub, logger Logger) *HTTP {
	return &HTTP{
		port:      port,
		state:     state,
		authority: authority,
		live:      live,
		logger:    logger,
	}
}

func (h *HTTP) Listen() error {
	h.logger.Infof("HTTP server listening on port: %d", h.port)

	h.server = &http.Server{
		Handler: h.Router(),
		Addr:    fmt.Sprintf(":%d", h.port),
	}

	go func() {
		err := h.server.ListenAndServe()

		if err == http.ErrServerClosed {
			return
		} else if err != nil {
			h.logger.WithError(err).Errorf("Could not start HTTP server")
		}
	}()

	return nil
}

func (h *HTTP) Router() http.Handler {
	router := chi.NewRouter()
	router.Mount("/INFO", http.HandlerFunc(h.Info))
	router.Mount("/RANKING", http.HandlerFunc(h.Ranking))
	router.Mount("/NETSTATS", http.HandlerFunc(h.NetStats))
	router.Mount("/metrics", promhttp.Handler())
	router.Mount("/live", http.HandlerFunc(h.live.ServeWebsocket))
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.logger.Debugf("Could not find HTTP response for URL: %s", r.URL.String())

		http.NotFound(w, r)
	})

	return router
}

type HTTPServerInfo struct {
	Name           string  `json:"name"`
	UDPPort        uint16  `json:"port"`
	HTTPPort       uint16  `json:"cport"`
	Clients        int     `json:"clients"`
	MaxClients     int     `json:"maxclients"`
	Track          string  `json:"track"`
	TrackLength    float64 `json:"track_length"`
	Laps           int     `json:"laps"`
	Phase          string  `json:"phase"`
	ElapsedSeconds float64 `json:"elapsed"`
	CountdownToGo  float64 `json:"countdown"`
	SendRateHz     int     `json:"send_rate"`
	Interpolation  string  `json:"interpolation"`
}

func (h *HTTP) Info(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(&HTTPServerInfo{
		Name:           h.state.serverConfig.Name,
		UDPPort:        h.state.serverConfig.UDPPort,
		HTTPPort:       h.state.serverConfig.HTTPPort,
		Clients:        h.authority.EntryList().NumConnected(),
		MaxClients:     h.authority.config.MaxParticipants,
		Track:          h.authority.config.TrackName,
		TrackLength:    h.authority.config.TrackLength,
		Laps:           h.authority.config.Laps,
		Phase:          h.authority.Phase().String(),
		ElapsedSeconds: h.authority.ElapsedRaceTime().Seconds(),
		CountdownToGo:  h.authority.CountdownRemaining(),
		SendRateHz:     h.state.replicationConfig.SendRateHz,
		Interpolation:  h.state.replicationConfig.InterpolationMode,
	})
}

func (h *HTTP) Ranking(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.authority.Ranking())
}

type HTTPNetStats struct {
	ParticipantID ParticipantID      `json:"participant_id"`
	Name          string             `json:"name"`
	Connected     bool               `json:"connected"`
	Quality       NetworkQualityInfo `json:"quality"`
	Dropped       uint64             `json:"dropped_snapshots"`
	Stale         bool               `json:"stale"`
}

func (h *HTTP) NetStats(w http.ResponseWriter, r *http.Request) {
	replicas := h.state.Replicas()

	stats := make([]HTTPNetStats, 0, len(replicas))

	for _, participant := range h.authority.EntryList() {
		replica, ok := replicas[participant.ID]

		if !ok {
			continue
		}

		stats = append(stats, HTTPNetStats{
			ParticipantID: participant.ID,
			Name:          participant.Name,
			Connected:     participant.IsConnected(),
			Quality:       replica.QualityInfo(),
			Dropped:       replica.DroppedSnapshots(),
			Stale:         replica.IsStale(),
		})
	}

	w.Header().Add("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}

func (h *HTTP) Close() error {
	h.logger.Debugf("Closing HTTP listener")

	if h.server == nil {
		return nil
	}

	return h.server.Close()
}
