package cmd

const DESCRIPTION = `
ttcsync keeps the Tamriel Trade Centre add-on's price table fresh.
A small daemon downloads the table for your region every few hours
and unpacks it into the add-on folder inside Elder Scrolls Online's
AddOns directory.
`

const (
	DaemonDescription = `The daemon command runs the scheduler and serves the
JSON-RPC endpoint the other commands talk to.

Example:
        ttcsync daemon --log-file ~/ttcsync.log

`
	StatusDescription = `The status command prints the configured region, when
the price table was last updated and where it is unpacked.

Example:
        ttcsync status

`
	UpdateDescription = `The update command downloads the price table right away.
If the daemon is running the update runs there, otherwise it
runs in the foreground with a progress bar.

Example:
        ttcsync update

`
	RegionDescription = `The region command prints or changes the megaserver
region whose prices are downloaded.

Example:
        ttcsync region eu

`
	IntervalDescription = `The interval command prints or changes how long the
daemon waits between updates. The minimum is one minute.

Example:
        ttcsync interval 3h

`
	DestinationDescription = `The destination command manages the TamrielTradeCentre
folder the price table is unpacked into. "search" scans the
usual AddOns locations, or the roots you pass.

Example:
        ttcsync destination search
        ttcsync destination set "~/Documents/Elder Scrolls Online/live/AddOns/TamrielTradeCentre"

`
	WatchDescription = `The watch command prints notifications from the daemon
as they happen until interrupted.

Example:
        ttcsync watch

`
)
