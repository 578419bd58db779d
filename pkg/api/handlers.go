package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Qetrox/esp32-gps-follower/pkg/manager"
	"github.com/Qetrox/esp32-gps-follower/pkg/reconciler"
	"github.com/Qetrox/esp32-gps-follower/pkg/types"
)

// handleIngest accepts one telemetry packet, either as a JSON body or in the
// query-parameter form the deployed firmware sends.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	pkt, err := decodePacket(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fix, err := s.manager.Ingest(pkt)
	if err != nil {
		if errors.Is(err, reconciler.ErrInvalidPacket) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Echo the resolved has_fix so the tracker can confirm the server-side
	// interpretation of what it sent.
	writeJSON(w, http.StatusOK, types.IngestAck{Status: "ok", HasFix: fix.HasFix})
}

func decodePacket(r *http.Request) (*types.Packet, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var pkt types.Packet
		if err := json.NewDecoder(r.Body).Decode(&pkt); err != nil {
			return nil, fmt.Errorf("malformed packet body: %v", err)
		}
		return &pkt, nil
	}
	return packetFromQuery(r.URL.Query())
}

// packetFromQuery parses the firmware's query-parameter form. The original
// tracker only pushed when it had a valid fix and sent no has_fix flag, so a
// request without one that carries all four position fields is treated as a
// fix packet.
func packetFromQuery(q url.Values) (*types.Packet, error) {
	pkt := &types.Packet{}

	var err error
	if pkt.Lat, err = queryFloat(q, "lat"); err != nil {
		return nil, err
	}
	if pkt.Lng, err = queryFloat(q, "lng"); err != nil {
		return nil, err
	}
	if pkt.Speed, err = queryFloat(q, "speed"); err != nil {
		return nil, err
	}
	if pkt.Alt, err = queryFloat(q, "alt"); err != nil {
		return nil, err
	}
	if pkt.HorizontalDilution, err = queryFloat(q, "hdop"); err != nil {
		return nil, err
	}

	if raw := q.Get("sats"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("malformed sats %q", raw)
		}
		pkt.SatelliteCount = &n
	}

	if raw := q.Get("has_fix"); raw != "" {
		hasFix, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("malformed has_fix %q", raw)
		}
		pkt.HasFix = hasFix
	} else {
		pkt.HasFix = pkt.Lat != nil && pkt.Lng != nil && pkt.Speed != nil && pkt.Alt != nil
	}

	return pkt, nil
}

func queryFloat(q url.Values, name string) (*float64, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed %s %q", name, raw)
	}
	return &v, nil
}

// handleLatestFix serves the stored record, or 404 before the first packet
// ever. "Never reported" and "reported with null fields" are different states
// and must stay distinguishable.
func (s *Server) handleLatestFix(w http.ResponseWriter, r *http.Request) {
	fix, err := s.manager.LatestFix()
	if err != nil {
		if errors.Is(err, manager.ErrNoFix) {
			writeError(w, http.StatusNotFound, "no fix recorded")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, fix)
}

// handleStatus serves the server-side staleness verdict for viewers that do
// not want to reimplement the classification.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]types.Staleness{"staleness": s.manager.Classify()})
}

func (s *Server) handlePOIs(w http.ResponseWriter, r *http.Request) {
	pois, err := s.manager.POIs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeRaw(w, pois)
}

func (s *Server) handleSetPOIs(w http.ResponseWriter, r *http.Request) {
	doc, err := decodeRawDocument(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.manager.SetPOIs(doc); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeRaw(w, doc)
}

func (s *Server) handleUIConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.manager.UIConfig()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeRaw(w, cfg)
}

func (s *Server) handleSetUIConfig(w http.ResponseWriter, r *http.Request) {
	doc, err := decodeRawDocument(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.manager.SetUIConfig(doc); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeRaw(w, doc)
}

// decodeRawDocument reads a pass-through document, enforcing only that it is
// valid JSON.
func decodeRawDocument(r *http.Request) (json.RawMessage, error) {
	var doc json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("malformed document: %v", err)
	}
	return doc, nil
}

func (s *Server) handleListNetworks(w http.ResponseWriter, r *http.Request) {
	networks, err := s.manager.Networks()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, networks)
}

func (s *Server) handleUpsertNetwork(w http.ResponseWriter, r *http.Request) {
	var network types.WifiNetwork
	if err := json.NewDecoder(r.Body).Decode(&network); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("malformed network: %v", err))
		return
	}

	networks, err := s.manager.UpsertNetwork(network.SSID, network.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, networks)
}

func (s *Server) handleRemoveNetwork(w http.ResponseWriter, r *http.Request) {
	ssid, err := url.PathUnescape(chi.URLParam(r, "ssid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed ssid")
		return
	}

	networks, err := s.manager.RemoveNetwork(ssid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, networks)
}

func writeRaw(w http.ResponseWriter, doc json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(doc)
}
