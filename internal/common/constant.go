package common

// AtomicDecimals is the number of decimal places between the atomic ledger
// unit and one whole coin (1 XMR = 10^12 piconero).
const AtomicDecimals = 12

// CoinTicker is appended to amounts shown in public post titles.
const CoinTicker = "XMR"
