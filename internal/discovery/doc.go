// Package discovery provides mDNS-based discovery of Framelink ingest servers.
//
// This package implements multicast DNS (mDNS) service discovery to
// automatically locate running ingest servers on the local network, and the
// matching advertisement side used by the server itself. Servers advertise
// using the "_framelink._tcp" service type.
//
// # Discovery Process
//
// The discovery process works as follows:
//  1. Broadcasts mDNS queries on the local network
//  2. Listens for "_framelink._tcp" service advertisements
//  3. Collects source information (instance name, IP, port, framing profile)
//  4. Returns a list of discovered sources after the timeout period
//
// # Usage Example
//
//	// Discover ingest servers with 10-second timeout
//	sources, err := discovery.ScanForSources(10 * time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, source := range sources {
//	    fmt.Printf("Found: %s at %s\n", source.Instance, source.Addr())
//	}
//
// # Advertisement
//
// A running ingest server announces itself with its framing profile in the
// TXT records, so clients can build matching packets without out-of-band
// configuration:
//
//	adv, err := discovery.Advertise("framelink-9710", 9710, 0xAA, 0xBB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer adv.Shutdown()
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Clients and servers must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
//
// # Thread Safety
//
// This package is safe for concurrent use. Multiple discovery sessions can run
// simultaneously without interference.
package discovery
