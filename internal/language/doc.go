// Package language turns loose user input ("German", "ger", "pt_BR") into the
// BCP 47 codes YouTube caption tracks use.
package language
