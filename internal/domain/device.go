package domain

import "time"

// Device is a registry entry keyed by hardware address
type Device struct {
	MAC       string    `json:"mac"`
	Hostname  string    `json:"hostname,omitempty"`
	APMAC     string    `json:"ap_mac,omitempty"`
	SwitchMAC string    `json:"switch_mac,omitempty"`
	IP        string    `json:"ip,omitempty"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	Label     string    `json:"label,omitempty"`
}

// Label is a free-form operator annotation for a device
type Label struct {
	MAC   string `json:"mac"`
	Label string `json:"label"`
}
