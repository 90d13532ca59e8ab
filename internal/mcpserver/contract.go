package mcpserver

// ProtocolContract describes the request grammar and response framing
// that bbp_request callers must follow.
const ProtocolContract = `# Book Builder Protocol

One request per call: a verb followed by verb-specific text. Verbs and item
types are upper-case. Item types: QUOTE, PLOT, PHIL, CHAR, THEME.

## Requests

- ` + "`ADD TYPE;;title;;body`" + ` adds an item. Titles are unique ignoring case.
- ` + "`GET id`" + `, ` + "`DELETE id`" + `, ` + "`CONTEXT id`" + ` address one item by its numeric id.
- ` + "`LIST TYPE`" + ` lists one type in insertion order.
- ` + "`SEARCH TYPE <type> <term>`" + `, ` + "`SEARCH TITLE <term>`" + `, ` + "`SEARCH KEYWORDS <w1> <w2> ...`" + `
- ` + "`LINK id1 id2`" + ` links two distinct items. Links are undirected.
- ` + "`OUTLINE`" + ` groups titles by type.
- ` + "`NEWB name`" + `, ` + "`LOADB name`" + `, ` + "`WHICHB`" + ` manage the active book. Names are alphanumeric.
- ` + "`USAGE [command]`" + ` prints help.

## Responses

- ` + "`ERR <CODE>`" + ` on failure, for example ` + "`ERR NOT-FOUND`" + ` or ` + "`ERR ITEM-EXISTS`" + `.
- ` + "`OK`" + ` or ` + "`OK <payload>`" + ` for single-line results.
- Block results start with ` + "`OK`" + `, ` + "`OK CONTEXT`" + ` or ` + "`OK OUTLINE`" + ` and end with a ` + "`.END`" + ` line.

Item records are rendered as ` + "`id ;; TYPE ;; title ;; body`" + `; list and search
results as ` + "`id ;; title ;; body`" + `.

## Example

` + "```" + `
ADD QUOTE;;Opening Line;;It was the best of times
OK 1 ;; Opening Line
LIST QUOTE
OK
1 ;; Opening Line ;; It was the best of times
.END
` + "```" + `
`
