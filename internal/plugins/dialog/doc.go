// Package dialog implements the "dialog" capability: message, ask, confirm,
// open and save dialogs. Dialogs are drawn by the desktop's own tool
// (osascript, zenity or kdialog) behind the Backend interface.
package dialog
