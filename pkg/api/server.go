// Package api exposes the process introspection layer over HTTP and
// MCP, for diagnostic agents that run out of process.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/acj/remoteprocess/pkg/proc"
)

type Server struct {
	port  int
	procs map[int]*proc.Process // pid -> open process cache
	mu    sync.RWMutex
}

func NewServer(port int) *Server {
	return &Server{
		port:  port,
		procs: make(map[int]*proc.Process),
	}
}

func (s *Server) getProcess(pid int) (*proc.Process, error) {
	s.mu.RLock()
	if p, ok := s.procs[pid]; ok {
		s.mu.RUnlock()
		return p, nil
	}
	s.mu.RUnlock()

	p, err := proc.New(pid)
	if err != nil {
		return nil, fmt.Errorf("failed to open process: %w", err)
	}

	s.mu.Lock()
	s.procs[pid] = p
	s.mu.Unlock()

	return p, nil
}

// ProcessInfo is the /info response payload.
type ProcessInfo struct {
	Pid     int      `json:"pid"`
	Exe     string   `json:"exe"`
	Cmdline []string `json:"cmdline"`
}

// ThreadInfo is one element of the /threads response payload.
type ThreadInfo struct {
	Tid    int  `json:"tid"`
	Active bool `json:"active"`
}

func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/info", s.handleInfo)
	mux.HandleFunc("/threads", s.handleThreads)
	mux.HandleFunc("/tree", s.handleTree)
	return http.ListenAndServe(fmt.Sprintf(":%d", s.port), mux)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	pid, err := getPID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := s.getProcess(pid)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	info, err := collectInfo(p)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, info)
}

func (s *Server) handleThreads(w http.ResponseWriter, r *http.Request) {
	pid, err := getPID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := s.getProcess(pid)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	threads, err := collectThreads(p)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to list threads: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, threads)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	pid, err := getPID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := s.getProcess(pid)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	edges, err := p.ChildProcesses()
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to list children: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, edges)
}

// collectInfo gathers the metadata served by both the HTTP and MCP
// frontends.
func collectInfo(p *proc.Process) (*ProcessInfo, error) {
	exe, err := p.Exe()
	if err != nil {
		return nil, fmt.Errorf("failed to query exe: %w", err)
	}
	cmdline, err := p.Cmdline()
	if err != nil {
		return nil, fmt.Errorf("failed to query cmdline: %w", err)
	}
	return &ProcessInfo{Pid: p.Pid, Exe: exe, Cmdline: cmdline}, nil
}

func collectThreads(p *proc.Process) ([]ThreadInfo, error) {
	threads, err := p.Threads()
	if err != nil {
		return nil, err
	}
	infos := make([]ThreadInfo, 0, len(threads))
	for _, t := range threads {
		tid, err := t.ID()
		if err != nil {
			t.Close()
			continue
		}
		active, _ := t.Active()
		infos = append(infos, ThreadInfo{Tid: tid, Active: active})
		t.Close()
	}
	return infos, nil
}

func getPID(r *http.Request) (int, error) {
	pidStr := r.URL.Query().Get("pid")
	if pidStr == "" {
		return 0, fmt.Errorf("pid parameter is required")
	}
	return strconv.Atoi(pidStr)
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, fmt.Sprintf("failed to encode response: %v", err), http.StatusInternalServerError)
	}
}
