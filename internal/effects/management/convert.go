package management

import (
	"mvpnd/internal/core"
	"mvpnd/internal/tunnel"
)

func targetStateFromWire(s string) core.TargetState {
	if s == "secured" {
		return core.Secured
	}
	return core.Unsecured
}

func transitionToWire(t tunnel.Transition) TunnelStateWire {
	return TunnelStateWire{
		State:    t.Kind.String(),
		After:    t.After.String(),
		Reason:   BlockReasonWire{Kind: t.Reason.Kind.String(), Message: t.Reason.Message},
		AllowLan: t.AllowLAN,
		Endpoint: EndpointWire{Host: t.Endpoint.Host, Port: t.Endpoint.Port, Protocol: t.Endpoint.Protocol},
	}
}

func locationToWire(l core.GeoIPLocation) LocationWire {
	ip := ""
	if l.IP != nil {
		ip = l.IP.String()
	}
	return LocationWire{
		IP:           ip,
		Country:      l.Country,
		City:         l.City,
		Latitude:     l.Latitude,
		Longitude:    l.Longitude,
		ViaMvpnRelay: l.ViaMvpnRelay,
	}
}

func accountDataToWire(a core.AccountData) AccountDataWire {
	return AccountDataWire{ExpiresAt: a.ExpiresAt}
}

func relayListToWire(l core.RelayList) GetRelayLocationsReply {
	out := GetRelayLocationsReply{}
	for _, c := range l.Countries {
		cw := RelayListCountryWire{Code: c.Code, Name: c.Name}
		for _, city := range c.Cities {
			cityw := RelayListCityWire{Code: city.Code, Name: city.Name}
			for _, r := range city.Relays {
				cityw.Relays = append(cityw.Relays, RelayWire{
					Hostname: r.Hostname, Ipv4Addr: r.IPv4Addr,
					Country: r.Country, City: r.City,
					Latitude: r.Latitude, Longitude: r.Longitude,
				})
			}
			cw.Cities = append(cw.Cities, cityw)
		}
		out.Countries = append(out.Countries, cw)
	}
	return out
}

func relaySettingsFromWire(w RelaySettingsWire) core.RelaySettings {
	var settings core.RelaySettings
	if w.Custom != nil {
		settings.Custom = &core.CustomTunnelEndpoint{Host: w.Custom.Host, Port: w.Custom.Port, Protocol: w.Custom.Protocol}
	}
	if w.Constraints != nil {
		settings.Constraints = &core.RelayConstraints{
			Country: w.Constraints.Country, City: w.Constraints.City,
			Protocol: w.Constraints.Protocol, Port: w.Constraints.Port,
		}
	}
	return settings
}

func relaySettingsToWire(s core.RelaySettings) RelaySettingsWire {
	var w RelaySettingsWire
	if s.Custom != nil {
		w.Custom = &CustomTunnelEndpointWire{Host: s.Custom.Host, Port: s.Custom.Port, Protocol: s.Custom.Protocol}
	}
	if s.Constraints != nil {
		w.Constraints = &RelayConstraintsWire{
			Country: s.Constraints.Country, City: s.Constraints.City,
			Protocol: s.Constraints.Protocol, Port: s.Constraints.Port,
		}
	}
	return w
}

func settingsToWire(s core.Settings) SettingsWire {
	return SettingsWire{
		AccountToken:  s.AccountToken,
		Relay:         relaySettingsToWire(s.Relay),
		AllowLan:      s.AllowLan,
		AutoConnect:   s.AutoConnect,
		EnableIpv6:    s.EnableIPv6,
		OpenVpnMssfix: s.OpenVPNMssfix,
	}
}

func versionInfoToWire(v core.AppVersionInfo) AppVersionInfoWire {
	return AppVersionInfoWire{CurrentIsSupported: v.CurrentIsSupported, Latest: v.Latest}
}
