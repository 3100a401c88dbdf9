package firewall

// lanRanges are the private address ranges exempted from blocking when
// a FirewallMode has AllowLAN set.
var lanRanges = []string{
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
}
