// Package domain models Parks on the Air (POTA) activator spots and the rules
// used to decide which of them are worth a push notification.
//
// # Data Source
//
// Spots come from the public POTA activator feed at
// https://api.pota.app/spot/activator/, a JSON array holding the latest spot
// for every activator currently on the air. Each run fetches the whole feed;
// nothing is remembered between runs except the QRZ session key.
//
// # POTA Data Conventions
//
// Location code:
//
//	"<country>-<subdivision>"  →  e.g. "US-HI"
//	ISO 3166-2 style. Only the US states and DC are modelled as [Region]
//	values; anything else is carried through verbatim and never matches.
//
// Spot time:
//
//	"2024-05-01T12:34:56". POTA reports UTC but omits the offset. A parsed
//	[FeedTime] with no offset is defined to be UTC+0 by [FeedTime.Normalize];
//	a value that already carries an offset is left alone.
//
// Frequency:
//
//	Kilohertz, sometimes sent as a JSON string ("14074") and sometimes as a
//	number (14074.0). Both decode through [FeedNumber].
//
// Mode:
//
//	Free text in the feed ("FT8", "SSB", "CW", "FM", ...). Interest criteria
//	may only name the closed set of [Mode] values this package knows.
//
// # Identity Resolution
//
// Operator names come from the QRZ.com XML API. A record may omit "fname"
// or "name"; club callsigns usually carry a "trustee" instead. See
// [ResolveIdentity] for the order in which these are consulted.
package domain
