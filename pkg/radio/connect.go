package radio

// ValidateSSID checks the 802.11 SSID length constraints.
func ValidateSSID(ssid string) error {
	if ssid == "" {
		return ErrSSIDEmpty
	}
	if len(ssid) > MaxSSIDLen {
		return ErrSSIDTooLong
	}
	return nil
}

// IssueConnect validates the target, applies the station config and
// begins a connect attempt. It returns once the attempt is issued;
// completion arrives as EventGotAddress or EventStationDisconnected.
//
// Both the station state machine and the provisioning verifier go
// through this entry point so the validation and configuration rules
// stay in one place.
func IssueConnect(d Driver, cfg StationConfig) error {
	if err := ValidateSSID(cfg.SSID); err != nil {
		return err
	}
	if err := d.ConfigureStation(cfg); err != nil {
		return err
	}
	return d.Connect()
}
