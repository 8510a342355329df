// Package cli implements minerledger-cli, the admin command line of the
// ledger. Commands talk to the gRPC service; privileged ones mint an admin
// token locally from the shared secret, taken from --secret, the config
// file, ADD_SPEED_SECRET, or an interactive prompt, in that order.
//
// Commands
//
//	balance <uid>                           observe a user's record
//	addspeed <uid> [--amount N]             increase a user's rate
//	sync <uid> --balance B --rate R         apply client-reported values
//	reset                                   run a reset sweep now
//	token [--ttl D]                         print a fresh admin token
package cli
