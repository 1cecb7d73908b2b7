// Package html extracts the visible text of HTML pages.
package html
