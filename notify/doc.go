// Package notify implements the Notification Queue (§4.6): external
// events that arrive mid-turn are held until the next tool-result
// boundary, then injected into that result's content as tagged markup
// the model is instructed to treat as out-of-band (§6.4).
package notify
