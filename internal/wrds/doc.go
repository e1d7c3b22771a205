// Package wrds queries Wharton Research Data Services over its public
// Postgres interface (wrds-pgdata.wharton.upenn.edu:9737). It covers the
// CRSP v2 monthly stock file, Compustat annual and quarterly fundamentals,
// and the CRSP/Compustat Merged link table, returning tables with the
// derived variables (market cap, book equity, excess returns) already
// computed.
package wrds
